package task

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestTaskString(t *testing.T) {
	got := Task{ID: 1, Description: "a", Status: DefaultStatus}.String()
	for _, want := range []string{"Task ID: 1", "Task: a", "Status: not yet started"} {
		if !strings.Contains(got, want) {
			t.Errorf("String() = %q, missing %q", got, want)
		}
	}
}

func TestNextID(t *testing.T) {
	tests := []struct {
		name  string
		tasks []Task
		want  int
	}{
		{"empty list", nil, 1},
		{"contiguous ids", []Task{{ID: 1}, {ID: 2}, {ID: 3}}, 4},
		{"gap after delete", []Task{{ID: 1}, {ID: 3}}, 4},
		{"unordered ids", []Task{{ID: 7}, {ID: 2}}, 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NextID(tt.tasks); got != tt.want {
				t.Errorf("NextID() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestAdd(t *testing.T) {
	var tasks []Task
	for i := 1; i <= 3; i++ {
		var added Task
		var err error
		tasks, added, err = Add(tasks, "task", "")
		if err != nil {
			t.Fatalf("Add() error = %v", err)
		}
		if added.ID != i {
			t.Errorf("added.ID = %d, want %d", added.ID, i)
		}
		if len(tasks) != i {
			t.Errorf("len(tasks) = %d, want %d", len(tasks), i)
		}
	}

	last := tasks[len(tasks)-1]
	if last.Status != DefaultStatus {
		t.Errorf("Status = %q, want %q", last.Status, DefaultStatus)
	}

	t.Run("custom status", func(t *testing.T) {
		_, added, err := Add(nil, "write docs", "doing")
		if err != nil {
			t.Fatalf("Add() error = %v", err)
		}
		if added.Status != "doing" {
			t.Errorf("Status = %q, want doing", added.Status)
		}
	})

	t.Run("trims description", func(t *testing.T) {
		_, added, err := Add(nil, "  buy milk  ", "")
		if err != nil {
			t.Fatalf("Add() error = %v", err)
		}
		if added.Description != "buy milk" {
			t.Errorf("Description = %q, want %q", added.Description, "buy milk")
		}
	})

	t.Run("empty description", func(t *testing.T) {
		out, _, err := Add(tasks, "   ", "")
		if !errors.Is(err, ErrEmptyDescription) {
			t.Fatalf("Add() error = %v, want ErrEmptyDescription", err)
		}
		if len(out) != len(tasks) {
			t.Errorf("list changed on error: %d -> %d", len(tasks), len(out))
		}
	})
}

func TestAddAfterDeleteKeepsIDsUnique(t *testing.T) {
	tasks := []Task{
		{ID: 1, Description: "a", Status: DefaultStatus},
		{ID: 2, Description: "b", Status: DefaultStatus},
		{ID: 3, Description: "c", Status: DefaultStatus},
	}

	tasks, _, err := Delete(tasks, 2)
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	tasks, added, err := Add(tasks, "d", "")
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if added.ID != 4 {
		t.Errorf("added.ID = %d, want 4", added.ID)
	}
	if err := Validate(tasks); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestDelete(t *testing.T) {
	tasks := []Task{
		{ID: 1, Description: "a"},
		{ID: 2, Description: "b"},
		{ID: 3, Description: "c"},
	}

	out, removed, err := Delete(tasks, 2)
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if removed.Description != "b" {
		t.Errorf("removed = %+v, want task b", removed)
	}
	if len(out) != 2 || out[0].ID != 1 || out[1].ID != 3 {
		t.Errorf("Delete() = %+v, want ids [1 3]", out)
	}
	if len(tasks) != 3 || tasks[1].ID != 2 {
		t.Errorf("input list modified: %+v", tasks)
	}

	_, _, err = Delete(out, 42)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Delete(42) error = %v, want ErrNotFound", err)
	}
	var nf *NotFoundError
	if !errors.As(err, &nf) || nf.ID != 42 {
		t.Errorf("Delete(42) error = %#v, want *NotFoundError{ID: 42}", err)
	}
}

func TestUpdateAndSetStatus(t *testing.T) {
	tasks := []Task{{ID: 1, Description: "a", Status: DefaultStatus}}

	tasks, err := Update(tasks, 1, "renamed")
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if tasks[0].Description != "renamed" {
		t.Errorf("Description = %q, want renamed", tasks[0].Description)
	}

	tasks, err = SetStatus(tasks, 1, "done")
	if err != nil {
		t.Fatalf("SetStatus() error = %v", err)
	}
	if tasks[0].Status != "done" {
		t.Errorf("Status = %q, want done", tasks[0].Status)
	}

	if _, err := Update(tasks, 9, "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update(9) error = %v, want ErrNotFound", err)
	}
	if _, err := Update(tasks, 1, ""); !errors.Is(err, ErrEmptyDescription) {
		t.Errorf("Update(empty) error = %v, want ErrEmptyDescription", err)
	}
	if _, err := SetStatus(tasks, 9, "done"); !errors.Is(err, ErrNotFound) {
		t.Errorf("SetStatus(9) error = %v, want ErrNotFound", err)
	}
	if _, err := SetStatus(tasks, 1, " "); !errors.Is(err, ErrEmptyStatus) {
		t.Errorf("SetStatus(empty) error = %v, want ErrEmptyStatus", err)
	}
}

func TestFilterAndCount(t *testing.T) {
	tasks := []Task{
		{ID: 1, Status: "done"},
		{ID: 2, Status: DefaultStatus},
		{ID: 3, Status: "Done"},
	}

	done := FilterByStatus(tasks, "done")
	if len(done) != 2 {
		t.Errorf("FilterByStatus(done) = %d tasks, want 2", len(done))
	}

	counts, statuses := CountByStatus(tasks)
	if counts[DefaultStatus] != 1 {
		t.Errorf("counts[%q] = %d, want 1", DefaultStatus, counts[DefaultStatus])
	}
	if len(statuses) != 3 || statuses[0] != "Done" {
		t.Errorf("statuses = %v, want sorted [Done done not yet started]", statuses)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		tasks   []Task
		wantErr string
	}{
		{"empty list", nil, ""},
		{"valid list", []Task{{ID: 1}, {ID: 2}}, ""},
		{"zero id", []Task{{ID: 0}}, "[0].id"},
		{"duplicate id", []Task{{ID: 1}, {ID: 1}}, "duplicate id 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.tasks)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestDefaultSchema(t *testing.T) {
	schema, err := DefaultSchema()
	if err != nil {
		t.Fatalf("DefaultSchema() error = %v", err)
	}
	if schema.Source != "embedded" {
		t.Errorf("Source = %q, want embedded", schema.Source)
	}

	tests := []struct {
		name     string
		doc      string
		wantErr  bool
		wantPath string
	}{
		{"empty array", `[]`, false, ""},
		{"valid task", `[{"id": 1, "task": "a", "status": "not yet started"}]`, false, ""},
		{"object instead of array", `{"tasks": []}`, true, ""},
		{"missing status", `[{"id": 1, "task": "a"}]`, true, "[0]"},
		{"string id", `[{"id": "1", "task": "a", "status": "x"}]`, true, "[0].id"},
		{"zero id", `[{"id": 0, "task": "a", "status": "x"}]`, true, "[0].id"},
		{"fractional id", `[{"id": 1.5, "task": "a", "status": "x"}]`, true, "[0].id"},
		{"unknown field", `[{"id": 1, "task": "a", "status": "x", "extra": true}]`, true, "[0]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var doc interface{}
			if err := json.Unmarshal([]byte(tt.doc), &doc); err != nil {
				t.Fatalf("bad fixture: %v", err)
			}
			err := schema.ValidateDocument(doc)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateDocument() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantPath != "" && !strings.Contains(err.Error(), tt.wantPath) {
				t.Errorf("ValidateDocument() error = %v, want path %q", err, tt.wantPath)
			}
			if err != nil {
				var ve *ValidationError
				if !errors.As(err, &ve) {
					t.Errorf("error %v does not contain a *ValidationError", err)
				}
			}
		})
	}
}

func TestLoadSchema(t *testing.T) {
	dir := t.TempDir()

	t.Run("external schema file", func(t *testing.T) {
		path := filepath.Join(dir, "strict.schema.json")
		strict := `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "array",
  "maxItems": 1
}`
		if err := os.WriteFile(path, []byte(strict), 0644); err != nil {
			t.Fatal(err)
		}

		schema, err := LoadSchema(path)
		if err != nil {
			t.Fatalf("LoadSchema() error = %v", err)
		}
		if !filepath.IsAbs(schema.Source) {
			t.Errorf("Source = %q, want absolute path", schema.Source)
		}

		var doc interface{}
		_ = json.Unmarshal([]byte(`[{}, {}]`), &doc)
		if err := schema.ValidateDocument(doc); err == nil {
			t.Error("expected maxItems violation")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadSchema(filepath.Join(dir, "nope.json"))
		if err == nil || !strings.Contains(err.Error(), "not found") {
			t.Errorf("LoadSchema() error = %v, want not found", err)
		}
	})

	t.Run("invalid schema", func(t *testing.T) {
		path := filepath.Join(dir, "bad.schema.json")
		if err := os.WriteFile(path, []byte(`{"type": 12}`), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadSchema(path); err == nil {
			t.Error("expected error for invalid schema")
		}
	})
}

func TestJSONPointerToPath(t *testing.T) {
	tests := map[string]string{
		"":         "",
		"#":        "",
		"/0":       "[0]",
		"/0/id":    "[0].id",
		"#/3/task": "[3].task",
		"/a~1b":    "a/b",
	}
	for in, want := range tests {
		if got := jsonPointerToPath(in); got != want {
			t.Errorf("jsonPointerToPath(%q) = %q, want %q", in, got, want)
		}
	}
}
