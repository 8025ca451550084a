package odata

import "testing"

type testEntity struct {
	ID   int    `json:"ID"`
	Name string `json:"Name"`
}

func TestDecodeCollectionEnvelope(t *testing.T) {
	body := []byte(`{"@odata.count": 12, "value": [{"ID":1,"Name":"a"},{"ID":2,"Name":"b"}]}`)
	res, err := DecodeCollection[testEntity](body)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(res.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(res.Items))
	}
	if res.TotalCount != 12 || !res.Counted {
		t.Errorf("expected server count 12, got %d (counted=%v)", res.TotalCount, res.Counted)
	}
}

func TestDecodeCollectionLegacyValues(t *testing.T) {
	body := []byte(`{"$values": [{"ID":3,"Name":"c"}]}`)
	res, err := DecodeCollection[testEntity](body)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(res.Items) != 1 || res.Items[0].ID != 3 {
		t.Errorf("unexpected items: %+v", res.Items)
	}
	if res.Counted {
		t.Error("legacy envelope carries no count")
	}
	if res.TotalCount != 1 {
		t.Errorf("count should fall back to item length, got %d", res.TotalCount)
	}
}

func TestDecodeCollectionBareArray(t *testing.T) {
	res, err := DecodeCollection[testEntity]([]byte(`[{"ID":9,"Name":"x"}]`))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(res.Items) != 1 || res.Items[0].Name != "x" {
		t.Errorf("unexpected items: %+v", res.Items)
	}
}

func TestDecodeCollectionWhitespacePrefixedArray(t *testing.T) {
	res, err := DecodeCollection[testEntity]([]byte("\n\t [{\"ID\":4,\"Name\":\"d\"}]"))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(res.Items) != 1 || res.Items[0].ID != 4 {
		t.Errorf("unexpected items: %+v", res.Items)
	}
}

func TestDecodeCollectionUnexpectedShape(t *testing.T) {
	// An object without any recognized collection key must fail loudly, not
	// come back as an empty page.
	if _, err := DecodeCollection[testEntity]([]byte(`{"data": []}`)); err == nil {
		t.Error("expected decode error for unrecognized shape")
	}
	if _, err := DecodeCollection[testEntity]([]byte(`"nope"`)); err == nil {
		t.Error("expected decode error for scalar body")
	}
}
