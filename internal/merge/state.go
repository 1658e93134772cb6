package merge

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"time"

	"github.com/samvad-hq/rank-harvester/internal/domain"
	"github.com/samvad-hq/rank-harvester/internal/snapshot"
)

// ErrInvalidState marks a merge state file with the wrong shape or a bad date.
var ErrInvalidState = errors.New("invalid merge state")

// State is the persisted result of previous merges.
type State struct {
	// Watermark is the newest snapshot date already folded in; nil means
	// nothing has been merged yet.
	Watermark   *time.Time
	Identifiers []string
}

type rawState struct {
	UpdateDate   *string  `json:"update_date"`
	PackageNames []string `json:"package_names"`
}

// LoadState reads the state at path. A missing file is a first run: an empty
// state is written and returned.
func LoadState(path string) (State, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		initErr := SaveState(path, State{})
		if errors.Is(err, fs.ErrNotExist) {
			if initErr != nil {
				return State{}, fmt.Errorf("initialize merge state %s: %w", path, initErr)
			}
			return State{Identifiers: []string{}}, nil
		}
		return State{}, errors.Join(fmt.Errorf("read merge state %s: %w", path, err), initErr)
	}
	return decodeState(raw)
}

func decodeState(raw []byte) (State, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return State{}, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}

	dateRaw, ok := fields["update_date"]
	if !ok {
		return State{}, fmt.Errorf("%w: update_date missing", ErrInvalidState)
	}
	var st State
	if !isNull(dateRaw) {
		var s string
		if err := json.Unmarshal(dateRaw, &s); err != nil {
			return State{}, fmt.Errorf("%w: update_date is not a string or null", ErrInvalidState)
		}
		d, err := snapshot.ParseDate(s)
		if err != nil {
			return State{}, fmt.Errorf("%w: update_date: %v", ErrInvalidState, err)
		}
		st.Watermark = &d
	}

	namesRaw, ok := fields["package_names"]
	if !ok || isNull(namesRaw) {
		return State{}, fmt.Errorf("%w: package_names is not a list", ErrInvalidState)
	}
	if err := json.Unmarshal(namesRaw, &st.Identifiers); err != nil {
		return State{}, fmt.Errorf("%w: package_names is not a list of strings", ErrInvalidState)
	}
	if st.Identifiers == nil {
		st.Identifiers = []string{}
	}
	return st, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// SaveState replaces the state file at path. Identifiers are written sorted
// and deduplicated.
func SaveState(path string, st State) error {
	out := rawState{PackageNames: uniqueSorted(st.Identifiers)}
	if st.Watermark != nil {
		d := domain.FormatDate(*st.Watermark)
		out.UpdateDate = &d
	}
	payload, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("encode merge state: %w", err)
	}
	if err := snapshot.WriteFileAtomic(path, payload); err != nil {
		return fmt.Errorf("save merge state: %w", err)
	}
	return nil
}

// uniqueSorted returns the distinct values of in, ascending by byte order.
func uniqueSorted(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
