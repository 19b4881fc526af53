// Package exchange obtains the primary exchange dataset (B3 COTAHIST).
//
// Sources, tried in order by Chain:
//   - FileSource: a JSON dataset already on disk
//   - ScriptSource: an external command (e.g. the rb3 R script) that writes a JSON dataset
//   - DownloadSource: the daily COTAHIST ZIP from B3, decoded with package cotahist
//
// JSON datasets come either row-oriented ([{"ticker": ...}, ...]) or
// column-oriented ({"ticker": [...], ...}). DecodeDataset normalizes both into
// one Dataset before any other package sees them.
package exchange
