package form

import (
	"github.com/tosurnament/dashboard/internal/api"
	"github.com/tosurnament/dashboard/internal/field"
	"github.com/tosurnament/dashboard/internal/query"
)

// Form is one section of the guild page, bound to a backend resource.
// Update forms PUT the edited record to URL, create forms POST a new one.
type Form struct {
	ID   string
	Name string
	URL  string

	Fields []field.Field
	Record api.Record

	Create     bool
	WithDelete bool

	// Query keys to drop after a successful write, relative to the user.
	Invalidate []query.Key

	Bindings []field.Binding
}

func newForm(id, name, url string, record api.Record, fields []field.Field, invalidate ...query.Key) *Form {
	f := &Form{ID: id, Name: name, URL: url, Fields: fields, Record: record, Invalidate: invalidate}
	f.Bind()
	return f
}

// Bind resets the bindings to the stored record.
func (f *Form) Bind() {
	f.Bindings = make([]field.Binding, len(f.Fields))
	for i, fd := range f.Fields {
		f.Bindings[i] = fd.Bind(f.Record[fd.Name])
		if f.Create {
			// Create forms start empty, errors show after the first submit.
			f.Bindings[i].Error = ""
		}
	}
}

// Binding returns the state of the named field.
func (f *Form) Binding(name string) (field.Binding, bool) {
	for _, b := range f.Bindings {
		if b.Field.Name == name {
			return b, true
		}
	}
	return field.Binding{}, false
}

// Submission is the outcome of applying submitted input to a form.
type Submission struct {
	Payload api.Record
	Valid   bool
	Dirty   bool
}

// Apply updates the bindings from in. The payload starts from the stored
// record so that keys the form does not edit reach the backend unchanged.
func (f *Form) Apply(in field.Input) Submission {
	sub := Submission{Payload: f.Record.Clone(), Valid: true}
	if sub.Payload == nil {
		sub.Payload = api.Record{}
	}

	for i, fd := range f.Fields {
		stored := f.Record[fd.Name]
		b := fd.Change(stored, in)
		f.Bindings[i] = b

		if !b.Valid() {
			sub.Valid = false
			continue
		}
		if f.Create || b.Value != fd.Bind(stored).Value {
			sub.Payload[fd.Name] = fd.JSON(b)
			sub.Dirty = true
		}
	}
	return sub
}

// Valid reports whether no field shows an error.
func (f *Form) Valid() bool {
	for _, b := range f.Bindings {
		if !b.Valid() {
			return false
		}
	}
	return true
}

func (f *Form) SavedMessage() string {
	if f.Create {
		return f.Name + " created"
	}
	return "Update done"
}

func (f *Form) DeletedMessage() string {
	return f.Name + " deleted"
}
