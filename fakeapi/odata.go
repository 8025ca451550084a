package fakeapi

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
)

// setInfo describes one entity set: the key property inside the stored
// document, and whether keys are opaque strings rather than integers.
type setInfo struct {
	keyField  string
	stringKey bool
}

var entitySets = map[string]setInfo{
	"Customers":       {keyField: "CustomerID"},
	"Products":        {keyField: "ProductID"},
	"Providers":       {keyField: "ProviderID"},
	"Warehouses":      {keyField: "WarehouseID"},
	"Locations":       {keyField: "LocationID"},
	"Inventories":     {keyField: "InventoryID"},
	"Deliveries":      {keyField: "DeliveryID"},
	"DeliveryDetails": {keyField: "DeliveryDetailID"},
	"Orders":          {keyField: "OrderID"},
	"OrderDetails":    {keyField: "OrderDetailID"},
	"UsersOdata":      {keyField: "Id", stringKey: true},
}

// expansion wires a navigation property to its backing set. many expansions
// collect children whose fkField equals the parent key; single expansions
// embed the row the parent's fkField points at.
type expansion struct {
	set     string
	many    bool
	fkField string
}

var expansions = map[string]map[string]expansion{
	"Deliveries": {
		"DeliveryDetails": {set: "DeliveryDetails", many: true, fkField: "DeliveryID"},
	},
	"Orders": {
		"OrderDetails": {set: "OrderDetails", many: true, fkField: "OrderID"},
		"Provider":     {set: "Providers", fkField: "ProviderID"},
		"Warehouse":    {set: "Warehouses", fkField: "WarehouseId"},
	},
	"Inventories": {
		"Product": {set: "Products", fkField: "ProductID"},
	},
	"Locations": {
		"Warehouse": {set: "Warehouses", fkField: "WarehouseID"},
	},
}

type document map[string]interface{}

func (s *Server) setFromRequest(w http.ResponseWriter, r *http.Request) (string, setInfo, bool) {
	name := mux.Vars(r)["set"]
	info, ok := entitySets[name]
	if !ok {
		writeMessage(w, http.StatusNotFound, fmt.Sprintf("Unknown entity set %q", name))
	}
	return name, info, ok
}

func (s *Server) loadSet(set string) ([]document, error) {
	rows, err := s.db.Query("SELECT data FROM resources WHERE set_name = ? ORDER BY CAST(id AS INTEGER), id", set)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []document
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var doc document
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (s *Server) loadDoc(set, id string) (document, error) {
	var raw string
	err := s.db.QueryRow("SELECT data FROM resources WHERE set_name = ? AND id = ?", set, id).Scan(&raw)
	if err != nil {
		return nil, err
	}
	var doc document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *Server) storeDoc(set, id string, doc document) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(
		"INSERT INTO resources (set_name, id, data) VALUES (?, ?, ?) ON CONFLICT(set_name, id) DO UPDATE SET data = excluded.data",
		set, id, string(raw))
	return err
}

func (s *Server) nextID(set string) (int, error) {
	var next int
	err := s.db.QueryRow(
		"SELECT COALESCE(MAX(CAST(id AS INTEGER)), 0) + 1 FROM resources WHERE set_name = ?", set).Scan(&next)
	return next, err
}

// stripNavigation drops navigation properties before a document is stored;
// they are recomputed on read from the related sets.
func stripNavigation(set string, doc document) {
	for prop := range expansions[set] {
		delete(doc, prop)
	}
}

func (s *Server) expandDoc(set string, doc document, expand string) error {
	if expand == "" {
		return nil
	}
	props := expansions[set]
	if props == nil {
		return nil
	}
	for _, name := range strings.Split(expand, ",") {
		name = strings.TrimSpace(name)
		exp, ok := props[name]
		if !ok {
			continue
		}
		if exp.many {
			children, err := s.loadSet(exp.set)
			if err != nil {
				return err
			}
			key := doc[entitySets[set].keyField]
			var matched []document
			for _, child := range children {
				if numericEqual(child[exp.fkField], key) {
					matched = append(matched, child)
				}
			}
			doc[name] = matched
			continue
		}
		fk, ok := doc[exp.fkField]
		if !ok {
			continue
		}
		related, err := s.loadDoc(exp.set, keyString(fk))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				continue
			}
			return err
		}
		doc[name] = related
	}
	return nil
}

func keyString(v interface{}) string {
	switch k := v.(type) {
	case float64:
		return strconv.FormatInt(int64(k), 10)
	case string:
		return k
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}

func numericEqual(a, b interface{}) bool {
	return keyString(a) == keyString(b)
}

var (
	containsPattern = regexp.MustCompile(`contains\(tolower\((\w+)\),\s*'((?:[^']|'')*)'\)`)
	eqPattern       = regexp.MustCompile(`(\w+) eq (\d+)`)
)

// matchesFilter evaluates the $filter subset the console emits: at most one
// contains(tolower(F),'t') clause ANDed with a group of OR'd "F eq N"
// comparisons.
func matchesFilter(doc document, filter string) bool {
	if filter == "" {
		return true
	}

	if m := containsPattern.FindStringSubmatch(filter); m != nil {
		field, term := m[1], strings.ReplaceAll(m[2], "''", "'")
		value := strings.ToLower(keyString(doc[field]))
		if !strings.Contains(value, term) {
			return false
		}
	}

	eqs := eqPattern.FindAllStringSubmatch(filter, -1)
	if len(eqs) > 0 {
		matched := false
		for _, m := range eqs {
			if keyString(doc[m[1]]) == m[2] {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	set, _, ok := s.setFromRequest(w, r)
	if !ok {
		return
	}

	docs, err := s.loadSet(set)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, err.Error())
		return
	}

	q := r.URL.Query()
	filter := q.Get("$filter")
	var matched []document
	for _, doc := range docs {
		if matchesFilter(doc, filter) {
			matched = append(matched, doc)
		}
	}
	total := len(matched)

	if skip, err := strconv.Atoi(q.Get("$skip")); err == nil && skip > 0 {
		if skip > len(matched) {
			skip = len(matched)
		}
		matched = matched[skip:]
	}
	if top, err := strconv.Atoi(q.Get("$top")); err == nil && top >= 0 && top < len(matched) {
		matched = matched[:top]
	}

	expand := q.Get("$expand")
	for _, doc := range matched {
		if err := s.expandDoc(set, doc, expand); err != nil {
			writeMessage(w, http.StatusInternalServerError, err.Error())
			return
		}
	}

	if matched == nil {
		matched = []document{}
	}
	body := map[string]interface{}{"value": matched}
	if q.Get("$count") == "true" {
		body["@odata.count"] = total
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	set, _, ok := s.setFromRequest(w, r)
	if !ok {
		return
	}
	id := mux.Vars(r)["id"]

	doc, err := s.loadDoc(set, id)
	if errors.Is(err, sql.ErrNoRows) {
		writeMessage(w, http.StatusNotFound, fmt.Sprintf("No entity with key %s", id))
		return
	}
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := s.expandDoc(set, doc, r.URL.Query().Get("$expand")); err != nil {
		writeMessage(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	set, info, ok := s.setFromRequest(w, r)
	if !ok {
		return
	}

	var doc document
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	stripNavigation(set, doc)

	var id string
	if info.stringKey {
		id = keyString(doc[info.keyField])
		if id == "" {
			writeMessage(w, http.StatusBadRequest, info.keyField+" is required")
			return
		}
	} else {
		next, err := s.nextID(set)
		if err != nil {
			writeMessage(w, http.StatusInternalServerError, err.Error())
			return
		}
		doc[info.keyField] = next
		id = strconv.Itoa(next)
	}

	if err := s.storeDoc(set, id, doc); err != nil {
		writeMessage(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	set, info, ok := s.setFromRequest(w, r)
	if !ok {
		return
	}
	id := mux.Vars(r)["id"]

	if _, err := s.loadDoc(set, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeMessage(w, http.StatusNotFound, fmt.Sprintf("No entity with key %s", id))
			return
		}
		writeMessage(w, http.StatusInternalServerError, err.Error())
		return
	}

	var doc document
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	stripNavigation(set, doc)
	if info.stringKey {
		doc[info.keyField] = id
	} else if n, err := strconv.Atoi(id); err == nil {
		doc[info.keyField] = n
	}

	if err := s.storeDoc(set, id, doc); err != nil {
		writeMessage(w, http.StatusInternalServerError, err.Error())
		return
	}
	if set == "UsersOdata" {
		if err := s.syncUserRow(doc); err != nil {
			writeMessage(w, http.StatusInternalServerError, err.Error())
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// syncUserRow pushes UsersOdata edits (role changes, the disabled flag) back
// into the auth table so login behavior follows.
func (s *Server) syncUserRow(doc document) error {
	disabled, _ := doc["IsDisabled"].(bool)
	role := 0
	if v, ok := doc["UserRole"].(float64); ok {
		role = int(v)
	}
	_, err := s.db.Exec(
		"UPDATE users SET username = ?, email = ?, display_name = ?, role = ?, disabled = ? WHERE id = ?",
		keyString(doc["Username"]), keyString(doc["Email"]), keyString(doc["DisplayName"]), role, disabled, keyString(doc["Id"]))
	return err
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	set, _, ok := s.setFromRequest(w, r)
	if !ok {
		return
	}
	id := mux.Vars(r)["id"]

	res, err := s.db.Exec("DELETE FROM resources WHERE set_name = ? AND id = ?", set, id)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, err.Error())
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		writeMessage(w, http.StatusNotFound, fmt.Sprintf("No entity with key %s", id))
		return
	}
	// Account rows back the UsersOdata set; keep the auth table in step.
	if set == "UsersOdata" {
		if _, err := s.db.Exec("DELETE FROM users WHERE id = ?", id); err != nil {
			writeMessage(w, http.StatusInternalServerError, err.Error())
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}
