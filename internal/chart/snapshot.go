package chart

import (
	"os"
	"path/filepath"

	"github.com/Masterminds/semver/v3"
	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"github.com/istin/tradingaizer/internal/indicator"
	"github.com/istin/tradingaizer/internal/logger"
	"github.com/istin/tradingaizer/internal/types"
	"github.com/istin/tradingaizer/pkg/errors"
)

// SnapshotSchemaVersion is the on-disk schema version of cache snapshots.
// Bump the major version whenever the record layout changes incompatibly;
// snapshots from a different major version are discarded on load.
const SnapshotSchemaVersion = "1.0.0"

type snapshotFile struct {
	Version string           `json:"version"`
	Entries []snapshotRecord `json:"entries"`
}

type snapshotRecord struct {
	Indicator string            `json:"indicator"`
	Timeframe string            `json:"timeframe"`
	Complete  int               `json:"complete"`
	Points    []indicator.Point `json:"points"`
}

// snapshotStore persists indicator cache contents as JSON files under a base
// directory, one file per session ID. A load failure of any kind degrades to
// an empty cache; the snapshot is an accelerator, never a source of truth.
type snapshotStore struct {
	dir    string
	logger *logger.Logger
}

func newSnapshotStore(dir string, l *logger.Logger) *snapshotStore {
	return &snapshotStore{
		dir:    dir,
		logger: l,
	}
}

func (s *snapshotStore) path(sessionID string) string {
	return filepath.Join(s.dir, sessionID+".json")
}

// load reads the snapshot for the session. Missing files, unreadable JSON,
// unknown versions and unknown timeframes all yield an empty result with a
// warning; only a missing file is silent.
func (s *snapshotStore) load(sessionID string) map[cacheKey]cacheEntry {
	empty := map[cacheKey]cacheEntry{}

	data, err := os.ReadFile(s.path(sessionID))
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("cache snapshot unreadable, starting empty",
				zap.String("session", sessionID),
				zap.Error(errors.Wrap(errors.ErrCodeSnapshotReadFailed, "read snapshot file", err)))
		}

		return empty
	}

	var file snapshotFile
	if err := sonic.Unmarshal(data, &file); err != nil {
		s.logger.Warn("cache snapshot corrupt, starting empty",
			zap.String("session", sessionID),
			zap.Error(errors.Wrap(errors.ErrCodeSnapshotReadFailed, "decode snapshot", err)))

		return empty
	}

	if !snapshotVersionCompatible(file.Version) {
		s.logger.Warn("cache snapshot version incompatible, starting empty",
			zap.String("session", sessionID),
			zap.String("snapshot_version", file.Version),
			zap.String("supported_version", SnapshotSchemaVersion))

		return empty
	}

	entries := make(map[cacheKey]cacheEntry, len(file.Entries))

	for _, rec := range file.Entries {
		tf, err := types.ParseTimeframe(rec.Timeframe)
		if err != nil {
			s.logger.Warn("cache snapshot has unknown timeframe, starting empty",
				zap.String("session", sessionID),
				zap.String("timeframe", rec.Timeframe))

			return empty
		}

		entries[cacheKey{Indicator: rec.Indicator, Timeframe: tf}] = cacheEntry{
			Points:   rec.Points,
			Complete: rec.Complete,
		}
	}

	return entries
}

// save writes the snapshot atomically: the file is written to a temp path in
// the same directory and renamed over the destination, so readers never see
// a half-written snapshot.
func (s *snapshotStore) save(sessionID string, entries map[cacheKey]cacheEntry) error {
	file := snapshotFile{
		Version: SnapshotSchemaVersion,
		Entries: make([]snapshotRecord, 0, len(entries)),
	}

	for key, entry := range entries {
		file.Entries = append(file.Entries, snapshotRecord{
			Indicator: key.Indicator,
			Timeframe: key.Timeframe.String(),
			Complete:  entry.Complete,
			Points:    entry.Points,
		})
	}

	data, err := sonic.Marshal(file)
	if err != nil {
		return errors.Wrap(errors.ErrCodeSnapshotWriteFailed, "encode snapshot", err)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeSnapshotWriteFailed, "create snapshot directory", err)
	}

	tmp, err := os.CreateTemp(s.dir, sessionID+".*.tmp")
	if err != nil {
		return errors.Wrap(errors.ErrCodeSnapshotWriteFailed, "create temp snapshot", err)
	}

	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)

		return errors.Wrap(errors.ErrCodeSnapshotWriteFailed, "write temp snapshot", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)

		return errors.Wrap(errors.ErrCodeSnapshotWriteFailed, "close temp snapshot", err)
	}

	if err := os.Rename(tmpPath, s.path(sessionID)); err != nil {
		os.Remove(tmpPath)

		return errors.Wrap(errors.ErrCodeSnapshotWriteFailed, "publish snapshot", err)
	}

	return nil
}

func snapshotVersionCompatible(version string) bool {
	got, err := semver.NewVersion(version)
	if err != nil {
		return false
	}

	want := semver.MustParse(SnapshotSchemaVersion)

	return got.Major() == want.Major()
}
