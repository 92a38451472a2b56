package uidsync

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/ini.v1"
)

// ElementTypeItem is the only element type that has a backing QA document.
const ElementTypeItem = "Item"

// Session is the state of an external editing session as written by the
// editor to its state file. Empty strings and a FieldDomain of -1 mean
// the key was absent.
type Session struct {
	EditedElementID string
	UIDFieldName    string
	FieldDomain     int
	PersistFolder   string
	Delimiter       string
	ElementType     string
	Running         bool
}

var sessionLoadOptions = ini.LoadOptions{
	IgnoreInlineComment:     true,
	IgnoreContinuation:      true,
	SkipUnrecognizableLines: true,
}

// LoadSession reads an INI-style state file.
func LoadSession(path string) (Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Session{}, fmt.Errorf("uidsync: read session %s: %w", path, err)
	}
	return ParseSession(data)
}

// ParseSession parses a session file. Keys are looked up in every section,
// later ones winning; unknown keys and empty values are skipped.
func ParseSession(data []byte) (Session, error) {
	f, err := ini.LoadSources(sessionLoadOptions, data)
	if err != nil {
		return Session{}, fmt.Errorf("uidsync: parse session: %w", err)
	}
	s := Session{FieldDomain: -1}
	for _, sec := range f.Sections() {
		for _, key := range sec.Keys() {
			value := key.String()
			if value == "" {
				continue
			}
			switch key.Name() {
			case "editedEleId":
				s.EditedElementID = value
			case "mdUIDFieldName":
				s.UIDFieldName = value
			case "field_domain":
				d, err := strconv.Atoi(value)
				if err != nil {
					return Session{}, fmt.Errorf("uidsync: field_domain %q: %w", value, err)
				}
				s.FieldDomain = d
			case "SM2OBFolderPath":
				s.PersistFolder = value
			case "SMQAdelimiter":
				s.Delimiter = value
			case "SMEleType":
				s.ElementType = value
			case "SMEditProIsRunning":
				s.Running = value == "true"
			}
		}
	}
	return s, nil
}
