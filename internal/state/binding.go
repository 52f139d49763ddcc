package state

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/magiconair/properties"

	"github.com/danieljhkim/apivcs/internal/fsops"
)

// Binding keys in the config file.
const (
	KeyProjectID = "projectId"
	KeyBranch    = "branch"
	KeyOrgID     = "orgId"
)

// Binding links a working tree to one remote branch.
type Binding struct {
	ProjectID string
	Branch    string
	OrgID     string
}

// Validate reports missing keys as ErrBindingIncomplete.
func (b *Binding) Validate() error {
	var missing []string
	if b.ProjectID == "" {
		missing = append(missing, KeyProjectID)
	}
	if b.Branch == "" {
		missing = append(missing, KeyBranch)
	}
	if b.OrgID == "" {
		missing = append(missing, KeyOrgID)
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrBindingIncomplete, strings.Join(missing, ", "))
	}
	if err := fsops.ValidateIdentifier(b.Branch); err != nil {
		return fmt.Errorf("invalid branch %q: %w", b.Branch, err)
	}
	return nil
}

// BindingStore persists the binding of a working tree.
type BindingStore interface {
	// Load reads the binding. Returns ErrNoBinding if the file doesn't exist.
	Load(layout Layout) (*Binding, error)

	// Save writes the binding atomically.
	Save(layout Layout, binding *Binding) error

	// Exists checks if a binding file exists.
	Exists(layout Layout) (bool, error)
}

// FileBindingStore stores the binding as a properties file.
type FileBindingStore struct {
	fs fsops.FS
}

// NewFileBindingStore creates a new FileBindingStore.
func NewFileBindingStore(fs fsops.FS) *FileBindingStore {
	return &FileBindingStore{fs: fs}
}

// Load reads and validates the binding.
func (s *FileBindingStore) Load(layout Layout) (*Binding, error) {
	data, err := s.fs.ReadFile(layout.ConfigPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoBinding
		}
		return nil, fmt.Errorf("failed to read binding: %w", err)
	}

	props, err := properties.Load(data, properties.UTF8)
	if err != nil {
		return nil, fmt.Errorf("failed to parse binding: %w", err)
	}

	binding := &Binding{
		ProjectID: props.GetString(KeyProjectID, ""),
		Branch:    props.GetString(KeyBranch, ""),
		OrgID:     props.GetString(KeyOrgID, ""),
	}
	if err := binding.Validate(); err != nil {
		return nil, err
	}
	return binding, nil
}

// Save writes the binding atomically.
func (s *FileBindingStore) Save(layout Layout, binding *Binding) error {
	if err := binding.Validate(); err != nil {
		return err
	}

	props := properties.NewProperties()
	for _, kv := range [][2]string{
		{KeyProjectID, binding.ProjectID},
		{KeyBranch, binding.Branch},
		{KeyOrgID, binding.OrgID},
	} {
		if _, _, err := props.Set(kv[0], kv[1]); err != nil {
			return fmt.Errorf("failed to set %s: %w", kv[0], err)
		}
	}

	var buf bytes.Buffer
	if _, err := props.Write(&buf, properties.UTF8); err != nil {
		return fmt.Errorf("failed to encode binding: %w", err)
	}
	if err := s.fs.AtomicWrite(layout.ConfigPath(), buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write binding: %w", err)
	}
	return nil
}

// Exists checks if the binding file exists.
func (s *FileBindingStore) Exists(layout Layout) (bool, error) {
	return s.fs.Exists(layout.ConfigPath())
}
