// Package entrystore keeps encrypted entries as files in one flat
// directory. The file name is the only metadata: the stem is the UTC
// creation time as YYYY-MM-DDTHH:MM:SS and the extension is .diaria.
//
// Entries are immutable. Writes go to a temporary file in the target
// directory which is then hard-linked to its final name, so an existing
// entry is never replaced and readers never see a half-written file.
package entrystore
