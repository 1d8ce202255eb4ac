package archive

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"emberhall/internal/persistence/snapshot"
)

type WeekArchiveMeta struct {
	Week      int    `json:"week"`
	EndDay    int    `json:"end_day"`
	Game      string `json:"game"`
	Save      string `json:"save"`
	CreatedAt string `json:"created_at"`
}

// ArchiveWeekSave copies a week-end save into `gameDir/archives/week_<NNN>/`.
// It returns (week, archivedPath, archived=true) when the save falls on a
// week boundary. Weeks close after their seventh day, so day 7k is the end
// of week k.
func ArchiveWeekSave(gameDir, savePath string, h snapshot.Header) (week int, archivedPath string, archived bool, err error) {
	if h.Day <= 0 || h.Day%7 != 0 {
		return 0, "", false, nil
	}
	week = h.Day / 7

	archiveDir := filepath.Join(gameDir, "archives", fmt.Sprintf("week_%03d", week))
	if err := os.MkdirAll(archiveDir, 0o755); err != nil {
		return 0, "", false, err
	}

	dst := filepath.Join(archiveDir, filepath.Base(savePath))
	if err := copyFile(savePath, dst); err != nil {
		return 0, "", false, err
	}

	meta := WeekArchiveMeta{
		Week:      week,
		EndDay:    h.Day,
		Game:      h.Game,
		Save:      filepath.Base(dst),
		CreatedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
	if b, err := json.MarshalIndent(meta, "", "  "); err == nil {
		_ = os.WriteFile(filepath.Join(archiveDir, "meta.json"), b, 0o644)
	}

	return week, dst, true, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
