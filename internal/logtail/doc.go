// Package logtail reads the tail of lovary's own log file for the activity
// overlay.
//
// Read extracts the last N lines with a ring buffer of size N, so memory stays
// O(N) regardless of file size and lines come back in chronological order. A
// missing file is not an error: before the first request there is simply
// nothing to show.
//
// The log file holds zap JSON records. Parse decodes one line into an Entry
// (timestamp, level, message and remaining fields), Filter drops entries
// below a minimum level, and Format renders an entry as one display line:
//
//	lines, _ := logtail.Read(cfg.LogPath(), 200)
//	for _, line := range lines {
//		fmt.Println(logtail.Format(logtail.Parse(line)))
//	}
//
// Lines that are not JSON (for example a partially written record) pass
// through unchanged.
package logtail
