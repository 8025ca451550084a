package odata

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// ChangeOp is one mutation inside a batch changeset. Path is relative to the
// backend root, e.g. "/odata/DeliveryDetails/12".
type ChangeOp struct {
	Method string
	Path   string
	Body   interface{}
}

// SubmitChangeset sends the operations as a single OData $batch changeset.
// The backend applies a changeset atomically, so a failing child mutation
// rolls back its siblings instead of leaving a partially-applied parent.
func (c *Client) SubmitChangeset(ctx context.Context, ops []ChangeOp) error {
	if len(ops) == 0 {
		return nil
	}

	batchBoundary := "batch_" + uuid.NewString()
	changesetBoundary := "changeset_" + uuid.NewString()

	payload, err := buildBatchPayload(batchBoundary, changesetBoundary, ops)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/odata/$batch", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "multipart/mixed; boundary="+batchBoundary)
	req.Header.Set("Accept", "multipart/mixed")
	if c.token != nil {
		if tok := c.token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return decodeError(resp)
	}

	mediaType, params, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") {
		// Some backends answer a bare 200 with no multipart body; treat the
		// top-level success status as success.
		return nil
	}
	return checkBatchParts(resp.Body, params["boundary"])
}

func buildBatchPayload(batchBoundary, changesetBoundary string, ops []ChangeOp) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "--%s\r\n", batchBoundary)
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%s\r\n\r\n", changesetBoundary)

	for i, op := range ops {
		fmt.Fprintf(&buf, "--%s\r\n", changesetBoundary)
		buf.WriteString("Content-Type: application/http\r\n")
		buf.WriteString("Content-Transfer-Encoding: binary\r\n")
		fmt.Fprintf(&buf, "Content-ID: %d\r\n\r\n", i+1)

		fmt.Fprintf(&buf, "%s %s HTTP/1.1\r\n", op.Method, op.Path)
		if op.Body != nil {
			body, err := json.Marshal(op.Body)
			if err != nil {
				return nil, fmt.Errorf("encoding changeset operation %d: %w", i+1, err)
			}
			buf.WriteString("Content-Type: application/json\r\n")
			fmt.Fprintf(&buf, "Content-Length: %d\r\n\r\n", len(body))
			buf.Write(body)
			buf.WriteString("\r\n")
		} else {
			buf.WriteString("\r\n")
		}
	}

	fmt.Fprintf(&buf, "--%s--\r\n", changesetBoundary)
	fmt.Fprintf(&buf, "--%s--\r\n", batchBoundary)
	return buf.Bytes(), nil
}

// checkBatchParts walks the multipart response, recursing into nested
// changeset parts, and fails on the first embedded response with an error
// status.
func checkBatchParts(r io.Reader, boundary string) error {
	reader := multipart.NewReader(r, boundary)
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading batch response part: %w", err)
		}

		mediaType, params, err := mime.ParseMediaType(part.Header.Get("Content-Type"))
		if err != nil {
			part.Close()
			continue
		}

		if strings.HasPrefix(mediaType, "multipart/") {
			if err := checkBatchParts(part, params["boundary"]); err != nil {
				part.Close()
				return err
			}
			part.Close()
			continue
		}

		if mediaType == "application/http" {
			embedded, err := http.ReadResponse(bufio.NewReader(part), nil)
			if err != nil {
				part.Close()
				return fmt.Errorf("parsing embedded batch response: %w", err)
			}
			if embedded.StatusCode >= 400 {
				batchErr := decodeError(embedded)
				embedded.Body.Close()
				part.Close()
				return batchErr
			}
			embedded.Body.Close()
		}
		part.Close()
	}
}
