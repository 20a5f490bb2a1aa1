// Package archive keeps a history of applied reconciliations in object storage.
//
// Every applied run is written as one JSON object:
//
//	<prefix>/<parentType>/<parentID>/<timestamp>-<uuid>.json
//
// Timestamps are UTC with nanosecond precision, so keys sort chronologically
// and List can return newest first without downloading anything. Store prunes
// each parent's folder down to Config.Keep records with a single batch removal.
package archive
