package persist

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/zeebo/blake3"
	"pkt.systems/pslog"
)

// workspaceFile is the on-disk shape of one workspace's state.
type workspaceFile struct {
	Root   string            `json:"root"`
	Values map[string]string `json:"values"`
}

// Store persists workspace-scoped key/value state to disk, one file per
// workspace root.
type Store struct {
	dir string
	log pslog.Logger
	mu  sync.Mutex
}

// NewStore constructs a persistent store at the given directory.
func NewStore(dir string) (*Store, error) {
	return NewStoreWithLogger(dir, nil)
}

// NewStoreWithLogger constructs a persistent store with logging.
func NewStoreWithLogger(dir string, logger pslog.Logger) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("state directory is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	if logger != nil {
		logger = logger.With("state_dir", dir)
	}
	return &Store{dir: dir, log: logger}, nil
}

// Workspace returns the state bound to a workspace root.
func (s *Store) Workspace(root string) *WorkspaceState {
	return &WorkspaceState{store: s, root: root, path: s.pathForRoot(root)}
}

// WorkspaceState is the key/value state of a single workspace.
type WorkspaceState struct {
	store *Store
	root  string
	path  string
}

// Path returns the backing file path.
func (w *WorkspaceState) Path() string {
	return w.path
}

// Get returns the value stored under key.
func (w *WorkspaceState) Get(key string) (string, bool, error) {
	w.store.mu.Lock()
	defer w.store.mu.Unlock()
	file, err := w.load()
	if err != nil {
		return "", false, err
	}
	value, ok := file.Values[key]
	return value, ok, nil
}

// Set stores value under key.
func (w *WorkspaceState) Set(key, value string) error {
	w.store.mu.Lock()
	defer w.store.mu.Unlock()
	file, err := w.load()
	if err != nil {
		return err
	}
	file.Values[key] = value
	return w.save(file, key)
}

// Delete removes key. Deleting a missing key is not an error.
func (w *WorkspaceState) Delete(key string) error {
	w.store.mu.Lock()
	defer w.store.mu.Unlock()
	file, err := w.load()
	if err != nil {
		return err
	}
	if _, ok := file.Values[key]; !ok {
		return nil
	}
	delete(file.Values, key)
	return w.save(file, key)
}

func (w *WorkspaceState) load() (workspaceFile, error) {
	file := workspaceFile{Root: w.root, Values: map[string]string{}}
	data, err := os.ReadFile(w.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if w.store.log != nil {
				w.store.log.Debug("state load miss", "workspace", w.root)
			}
			return file, nil
		}
		if w.store.log != nil {
			w.store.log.Warn("state load failed", "workspace", w.root, "err", err)
		}
		return file, err
	}
	if err := json.Unmarshal(data, &file); err != nil {
		if w.store.log != nil {
			w.store.log.Warn("state load failed", "workspace", w.root, "err", err)
		}
		return workspaceFile{}, err
	}
	if file.Values == nil {
		file.Values = map[string]string{}
	}
	file.Root = w.root
	return file, nil
}

func (w *WorkspaceState) save(file workspaceFile, key string) error {
	if err := os.MkdirAll(filepath.Dir(w.path), 0o700); err != nil {
		if w.store.log != nil {
			w.store.log.Warn("state save failed", "workspace", w.root, "key", key, "err", err)
		}
		return err
	}
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return err
	}
	if err := WriteFileAtomic(w.path, data, 0o600); err != nil {
		if w.store.log != nil {
			w.store.log.Warn("state save failed", "workspace", w.root, "key", key, "err", err)
		}
		return err
	}
	if w.store.log != nil {
		w.store.log.Trace("state save ok", "workspace", w.root, "key", key)
	}
	return nil
}

func (s *Store) pathForRoot(root string) string {
	return filepath.Join(s.dir, WorkspaceID(root)+".json")
}

// WorkspaceID derives a stable file-safe identifier for a workspace root.
func WorkspaceID(root string) string {
	sum := blake3.Sum256([]byte(filepath.Clean(root)))
	return hex.EncodeToString(sum[:16])
}
