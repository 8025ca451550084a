package fakeapi

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"log"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/google/uuid"
)

type batchOp struct {
	contentID string
	req       *http.Request
}

// handleBatch executes a multipart $batch request. Changesets are atomic: if
// any operation inside one fails, the resource table is rolled back to its
// state before the changeset and the failing response is the only part
// returned for it.
func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	mediaType, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") {
		writeMessage(w, http.StatusBadRequest, "A $batch request must be multipart/mixed")
		return
	}

	auth := r.Header.Get("Authorization")
	responseBoundary := "batchresponse_" + uuid.NewString()
	var body bytes.Buffer

	reader := multipart.NewReader(r.Body, params["boundary"])
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			writeMessage(w, http.StatusBadRequest, fmt.Sprintf("reading batch part: %v", err))
			return
		}

		partType, partParams, err := mime.ParseMediaType(part.Header.Get("Content-Type"))
		if err != nil {
			part.Close()
			continue
		}

		switch {
		case strings.HasPrefix(partType, "multipart/"):
			ops, err := readChangeset(part, partParams["boundary"], auth)
			part.Close()
			if err != nil {
				writeMessage(w, http.StatusBadRequest, err.Error())
				return
			}
			s.runChangeset(&body, responseBoundary, ops)
		case partType == "application/http":
			req, contentID, err := readBatchRequest(part, auth)
			part.Close()
			if err != nil {
				writeMessage(w, http.StatusBadRequest, err.Error())
				return
			}
			rec := httptest.NewRecorder()
			s.router.ServeHTTP(rec, req)
			writeBatchResponse(&body, responseBoundary, contentID, rec)
		default:
			part.Close()
		}
	}

	fmt.Fprintf(&body, "--%s--\r\n", responseBoundary)

	w.Header().Set("Content-Type", "multipart/mixed; boundary="+responseBoundary)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body.Bytes()); err != nil {
		log.Printf("Error writing batch response: %v", err)
	}
}

func readChangeset(r io.Reader, boundary, auth string) ([]batchOp, error) {
	var ops []batchOp
	reader := multipart.NewReader(r, boundary)
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			return ops, nil
		}
		if err != nil {
			return nil, fmt.Errorf("reading changeset part: %w", err)
		}
		req, contentID, err := readBatchRequest(part, auth)
		if err != nil {
			part.Close()
			return nil, err
		}
		ops = append(ops, batchOp{contentID: contentID, req: req})
		part.Close()
	}
}

func readBatchRequest(part *multipart.Part, auth string) (*http.Request, string, error) {
	contentID := part.Header.Get("Content-ID")
	embedded, err := http.ReadRequest(bufio.NewReader(part))
	if err != nil {
		return nil, "", fmt.Errorf("parsing embedded request: %w", err)
	}
	body, err := io.ReadAll(embedded.Body)
	if err != nil {
		return nil, "", err
	}
	req := httptest.NewRequest(embedded.Method, embedded.URL.String(), bytes.NewReader(body))
	req.Header = embedded.Header
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	return req, contentID, nil
}

// runChangeset applies the operations in order. On the first failure it
// restores the pre-changeset snapshot and emits only the failing response.
func (s *Server) runChangeset(out *bytes.Buffer, responseBoundary string, ops []batchOp) {
	snapshot, err := s.snapshotResources()
	if err != nil {
		rec := httptest.NewRecorder()
		writeMessage(rec, http.StatusInternalServerError, err.Error())
		writeBatchResponse(out, responseBoundary, "", rec)
		return
	}

	changesetBoundary := "changesetresponse_" + uuid.NewString()
	var parts bytes.Buffer
	for _, op := range ops {
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, op.req)
		if rec.Code >= 400 {
			if restoreErr := s.restoreResources(snapshot); restoreErr != nil {
				log.Printf("Error rolling back changeset: %v", restoreErr)
			}
			parts.Reset()
			writeBatchResponse(&parts, changesetBoundary, op.contentID, rec)
			break
		}
		writeBatchResponse(&parts, changesetBoundary, op.contentID, rec)
	}

	fmt.Fprintf(out, "--%s\r\n", responseBoundary)
	fmt.Fprintf(out, "Content-Type: multipart/mixed; boundary=%s\r\n\r\n", changesetBoundary)
	out.Write(parts.Bytes())
	fmt.Fprintf(out, "--%s--\r\n", changesetBoundary)
}

func writeBatchResponse(out *bytes.Buffer, boundary, contentID string, rec *httptest.ResponseRecorder) {
	fmt.Fprintf(out, "--%s\r\n", boundary)
	out.WriteString("Content-Type: application/http\r\n")
	out.WriteString("Content-Transfer-Encoding: binary\r\n")
	if contentID != "" {
		fmt.Fprintf(out, "Content-ID: %s\r\n", contentID)
	}
	out.WriteString("\r\n")

	body := rec.Body.Bytes()
	fmt.Fprintf(out, "HTTP/1.1 %d %s\r\n", rec.Code, http.StatusText(rec.Code))
	if ct := rec.Header().Get("Content-Type"); ct != "" {
		fmt.Fprintf(out, "Content-Type: %s\r\n", ct)
	}
	fmt.Fprintf(out, "Content-Length: %d\r\n\r\n", len(body))
	out.Write(body)
	out.WriteString("\r\n")
}

type resourceRow struct {
	set  string
	id   string
	data string
}

func (s *Server) snapshotResources() ([]resourceRow, error) {
	rows, err := s.db.Query("SELECT set_name, id, data FROM resources")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snapshot []resourceRow
	for rows.Next() {
		var row resourceRow
		if err := rows.Scan(&row.set, &row.id, &row.data); err != nil {
			return nil, err
		}
		snapshot = append(snapshot, row)
	}
	return snapshot, rows.Err()
}

func (s *Server) restoreResources(snapshot []resourceRow) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM resources"); err != nil {
		tx.Rollback()
		return err
	}
	for _, row := range snapshot {
		if _, err := tx.Exec("INSERT INTO resources (set_name, id, data) VALUES (?, ?, ?)", row.set, row.id, row.data); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}
