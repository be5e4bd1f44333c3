package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/san-kum/nbody/internal/config"
	"github.com/san-kum/nbody/internal/frame"
	"github.com/san-kum/nbody/internal/frameio"
	"github.com/san-kum/nbody/internal/memory"
)

const metadataFile = "metadata.json"

// Kinds of file a run directory holds.
const (
	KindFrame      = "frame"
	KindTrajectory = "traj"
	KindBackup     = "backup"
)

// Store keeps one directory per run under baseDir.
type Store struct {
	baseDir string
	logger  zerolog.Logger
}

func New(baseDir string) *Store {
	return &Store{
		baseDir: baseDir,
		logger:  log.Logger.With().Str("component", "storage").Logger(),
	}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID           string    `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	Bodies       int       `json:"bodies"`
	Catalogue    string    `json:"catalogue"`
	Integrator   string    `json:"integrator"`
	Mode         string    `json:"mode"`
	StartFrame   int       `json:"start_frame"`
	WriteStep    int       `json:"write_step"`
	Frames       []int     `json:"frames"`
	Trajectories []int     `json:"trajectories"`
	Backups      []int     `json:"backups"`
}

// Run is an open run directory.
type Run struct {
	store *Store
	dir   string
	Meta  RunMetadata
}

// Create starts a new run described by cfg.
func (s *Store) Create(cfg *config.Config, mode string) (*Run, error) {
	runID := fmt.Sprintf("run_%d", time.Now().UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return nil, err
	}

	r := &Run{
		store: s,
		dir:   runDir,
		Meta: RunMetadata{
			ID:         runID,
			Timestamp:  time.Now(),
			Bodies:     cfg.Bodies,
			Catalogue:  cfg.Catalogue,
			Integrator: cfg.Integrator,
			Mode:       mode,
			StartFrame: cfg.StartFrame,
			WriteStep:  cfg.WriteStep,
		},
	}
	if err := r.flush(); err != nil {
		return nil, err
	}
	s.logger.Debug().Str("run", runID).Str("dir", runDir).Msg("run created")
	return r, nil
}

// Open reopens an existing run.
func (s *Store) Open(runID string) (*Run, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}
	return &Run{store: s, dir: filepath.Join(s.baseDir, runID), Meta: *meta}, nil
}

func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	metaPath := filepath.Join(s.baseDir, runID, metadataFile)
	data, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// Path returns the file of the given kind and frame id.
func (r *Run) Path(kind string, id int) string {
	return filepath.Join(r.dir, fmt.Sprintf("%s_%06d.dat", kind, id))
}

func (r *Run) Dir() string { return r.dir }

// SaveFrame writes a full frame file and records it.
func (r *Run) SaveFrame(id int, snap frameio.Snapshot) (string, error) {
	path := r.Path(KindFrame, id)
	if err := frameio.WriteFull(path, snap); err != nil {
		return "", err
	}
	r.Meta.Frames = appendID(r.Meta.Frames, id)
	return r.recorded(KindFrame, id, path)
}

// SaveTrajectory writes positions only.
func (r *Run) SaveTrajectory(id int, snap frameio.Snapshot) (string, error) {
	path := r.Path(KindTrajectory, id)
	if err := frameio.WriteShort(path, snap); err != nil {
		return "", err
	}
	r.Meta.Trajectories = appendID(r.Meta.Trajectories, id)
	return r.recorded(KindTrajectory, id, path)
}

// SaveBackup writes a full frame a run can be restarted from.
func (r *Run) SaveBackup(id int, snap frameio.Snapshot) (string, error) {
	path := r.Path(KindBackup, id)
	if err := frameio.WriteFull(path, snap); err != nil {
		return "", err
	}
	r.Meta.Backups = appendID(r.Meta.Backups, id)
	return r.recorded(KindBackup, id, path)
}

// LoadFrame reads a stored full frame back.
func (r *Run) LoadFrame(id int, alloc memory.Allocator) (*frame.Particles, error) {
	return frameio.Read(r.Path(KindFrame, id), r.Meta.Bodies, alloc)
}

// LatestBackup returns the highest backup id, or false if there is none.
func (r *Run) LatestBackup() (int, bool) {
	if len(r.Meta.Backups) == 0 {
		return 0, false
	}
	return r.Meta.Backups[len(r.Meta.Backups)-1], true
}

func (r *Run) recorded(kind string, id int, path string) (string, error) {
	if err := r.flush(); err != nil {
		return "", err
	}
	r.store.logger.Debug().Str("run", r.Meta.ID).Str("kind", kind).Int("id", id).Str("path", path).Msg("file saved")
	return path, nil
}

func (r *Run) flush() error {
	metaFile, err := os.Create(filepath.Join(r.dir, metadataFile))
	if err != nil {
		return err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	return enc.Encode(r.Meta)
}

func appendID(ids []int, id int) []int {
	i := sort.SearchInts(ids, id)
	if i < len(ids) && ids[i] == id {
		return ids
	}
	ids = append(ids, 0)
	copy(ids[i+1:], ids[i:])
	ids[i] = id
	return ids
}
