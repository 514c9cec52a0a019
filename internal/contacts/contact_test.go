package contacts

import (
	"encoding/json"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestContact_Validate(t *testing.T) {
	tests := []struct {
		name    string
		contact Contact
		wantErr bool
	}{
		{name: "valid", contact: Contact{TrueID: "A1", Name: "Jane"}},
		{name: "missing id", contact: Contact{Name: "Jane"}, wantErr: true},
		{name: "blank id", contact: Contact{TrueID: "   "}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.contact.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestContact_Normalized(t *testing.T) {
	c := Contact{
		TrueID:         " A1 ",
		Name:           "  Jane Smith Intel ",
		Company:        "Intel\n",
		JobTitle:       "\tSoftware Engineer",
		ImageAvailable: true,
	}

	got := c.Normalized()
	want := Contact{
		TrueID:         " A1 ",
		Name:           "Jane Smith Intel",
		Company:        "Intel",
		JobTitle:       "Software Engineer",
		ImageAvailable: true,
	}
	if got != want {
		t.Errorf("Normalized() = %+v, want %+v", got, want)
	}
}

func TestContact_SameFields(t *testing.T) {
	base := Contact{TrueID: "A1", Name: "Jane", Company: "Intel", JobTitle: "Engineer"}

	tests := []struct {
		name  string
		other Contact
		want  bool
	}{
		{name: "identical", other: base, want: true},
		{name: "whitespace only", other: Contact{TrueID: "A1", Name: " Jane ", Company: "Intel  ", JobTitle: " Engineer"}, want: true},
		{name: "name differs", other: Contact{TrueID: "A1", Name: "Janet", Company: "Intel", JobTitle: "Engineer"}, want: false},
		{name: "company differs", other: Contact{TrueID: "A1", Name: "Jane", Company: "AMD", JobTitle: "Engineer"}, want: false},
		{name: "job title differs", other: Contact{TrueID: "A1", Name: "Jane", Company: "Intel"}, want: false},
		{name: "image flag differs", other: Contact{TrueID: "A1", Name: "Jane", Company: "Intel", JobTitle: "Engineer", ImageAvailable: true}, want: false},
		{name: "case is significant", other: Contact{TrueID: "A1", Name: "jane", Company: "Intel", JobTitle: "Engineer"}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := base.SameFields(tt.other); got != tt.want {
				t.Errorf("SameFields() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestContact_UnmarshalJSON_Aliases(t *testing.T) {
	data := `[
		{"true_id": "A1", "name": "Jane", "company": "Intel", "jobTitle": "Engineer", "imageAvailable": true},
		{"id": "B2", "name": "Bob", "job_title": "CTO", "image_available": true},
		{"id": "C3"}
	]`

	var got []Contact
	if err := json.Unmarshal([]byte(data), &got); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 contacts, got %d", len(got))
	}

	if got[0] != (Contact{TrueID: "A1", Name: "Jane", Company: "Intel", JobTitle: "Engineer", ImageAvailable: true}) {
		t.Errorf("contact 0 = %+v", got[0])
	}
	if got[1] != (Contact{TrueID: "B2", Name: "Bob", JobTitle: "CTO", ImageAvailable: true}) {
		t.Errorf("contact 1 = %+v", got[1])
	}
	// Absent fields decode as empty string / false.
	if got[2] != (Contact{TrueID: "C3"}) {
		t.Errorf("contact 2 = %+v", got[2])
	}
}

func TestContact_UnmarshalJSON_LooseValues(t *testing.T) {
	tests := []struct {
		name string
		data string
		want Contact
	}{
		{name: "numeric id", data: `{"id":101}`, want: Contact{TrueID: "101"}},
		{name: "large numeric id keeps literal", data: `{"true_id":12345678901234567890}`, want: Contact{TrueID: "12345678901234567890"}},
		{name: "padded id kept", data: `{"true_id":" A1 "}`, want: Contact{TrueID: " A1 "}},
		{name: "object id is empty", data: `{"id":{"x":1},"name":"Jane"}`, want: Contact{Name: "Jane"}},
		{name: "flag one", data: `{"id":"A","imageAvailable":1}`, want: Contact{TrueID: "A", ImageAvailable: true}},
		{name: "flag zero", data: `{"id":"A","imageAvailable":0,"image_available":true}`, want: Contact{TrueID: "A"}},
		{name: "flag string", data: `{"id":"A","image_available":"true"}`, want: Contact{TrueID: "A", ImageAvailable: true}},
		{name: "flag unrecognised", data: `{"id":"A","imageAvailable":"maybe"}`, want: Contact{TrueID: "A"}},
		{name: "flag null", data: `{"id":"A","imageAvailable":null,"image_available":1}`, want: Contact{TrueID: "A", ImageAvailable: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Contact
			if err := json.Unmarshal([]byte(tt.data), &got); err != nil {
				t.Fatalf("Unmarshal failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestContact_UnmarshalYAML(t *testing.T) {
	data := `
- true_id: A1
  name: Jane
  company: Intel
  jobTitle: Engineer
- id: B2
  name: Bob
  image_available: true
`
	var got []Contact
	if err := yaml.Unmarshal([]byte(data), &got); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 contacts, got %d", len(got))
	}
	if got[0].TrueID != "A1" || got[0].JobTitle != "Engineer" {
		t.Errorf("contact 0 = %+v", got[0])
	}
	if got[1].TrueID != "B2" || !got[1].ImageAvailable {
		t.Errorf("contact 1 = %+v", got[1])
	}
}

func TestContact_MarshalJSON_FieldNames(t *testing.T) {
	data, err := json.Marshal(Contact{TrueID: "A1", Name: "Jane", JobTitle: "Engineer"})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	for _, key := range []string{"true_id", "name", "company", "jobTitle", "imageAvailable"} {
		if _, ok := m[key]; !ok {
			t.Errorf("missing key %q in %s", key, data)
		}
	}
}
