// Package models defines the core data structures for puzzle records,
// credentials and the cross-machine sync projection.
package models

// Credentials holds the Project Euler username and password.
// They are read from and written to the persistent store only;
// catalog records never carry them.
type Credentials struct {
	// Username is the Project Euler account name.
	Username string `json:"username"`
	// Password is the Project Euler account password.
	Password string `json:"password"`
}

// CodeEntry is one authored solution file for a puzzle in a single language.
type CodeEntry struct {
	// Filename is the name of the solution file on disk.
	Filename string `json:"filename"`
	// FileContent is the full text of the solution file.
	FileContent string `json:"filecontent"`
	// Submission is the answer produced by executing the file, if any.
	Submission string `json:"submission,omitempty"`
}

// PuzzleRecord describes one puzzle and the user's progress on it.
// JSON keys mirror the listing column names and dot-file layout of the
// original catalog files so existing catalogs remain readable.
type PuzzleRecord struct {
	// ID is the 1-based puzzle number. Identity of the record.
	ID int `json:"ID"`
	// Title is the puzzle description / title from the listing.
	Title string `json:"Description / Title,omitempty"`
	// SolvedBy is the solver count column from the listing.
	SolvedBy string `json:"Solved By,omitempty"`
	// Difficulty is the difficulty rating column, when present.
	Difficulty string `json:"Difficulty,omitempty"`
	// Solved reports whether this identity has solved the puzzle.
	// Nil means not yet observed either way.
	Solved *bool `json:"Solved,omitempty"`
	// ProblemURL is the canonical puzzle URL, derived from ID.
	ProblemURL string `json:"problem_url,omitempty"`
	// PageURL is the listing page the record was crawled from.
	PageURL string `json:"page_url,omitempty"`
	// Problem is the full puzzle description HTML, filled by a detail fetch.
	Problem string `json:"Problem,omitempty"`
	// CorrectAnswer is the canonical answer echoed by the site once solved.
	CorrectAnswer string `json:"correct_answer,omitempty"`
	// CompletedOn is the completion timestamp echoed by the site once solved.
	CompletedOn string `json:"completed_on,omitempty"`
	// Code maps language name to the authored solution for that language.
	Code map[string]CodeEntry `json:"code,omitempty"`
}

// Clone returns a copy of the record whose Code map is independent of
// the receiver's, so mutating one never affects the other.
func (r PuzzleRecord) Clone() PuzzleRecord {
	out := r
	if r.Code != nil {
		out.Code = make(map[string]CodeEntry, len(r.Code))
		for lang, entry := range r.Code {
			out.Code[lang] = entry
		}
	}
	return out
}

// Merge overwrites dst fields with the non-empty fields of src.
// Fields absent from src leave dst untouched, so applying the same
// src twice yields the same dst. Code entries merge per language.
func Merge(dst *PuzzleRecord, src PuzzleRecord) {
	if src.ID != 0 {
		dst.ID = src.ID
	}
	if src.Title != "" {
		dst.Title = src.Title
	}
	if src.SolvedBy != "" {
		dst.SolvedBy = src.SolvedBy
	}
	if src.Difficulty != "" {
		dst.Difficulty = src.Difficulty
	}
	if src.Solved != nil {
		solved := *src.Solved
		dst.Solved = &solved
	}
	if src.ProblemURL != "" {
		dst.ProblemURL = src.ProblemURL
	}
	if src.PageURL != "" {
		dst.PageURL = src.PageURL
	}
	if src.Problem != "" {
		dst.Problem = src.Problem
	}
	if src.CorrectAnswer != "" {
		dst.CorrectAnswer = src.CorrectAnswer
	}
	if src.CompletedOn != "" {
		dst.CompletedOn = src.CompletedOn
	}
	if len(src.Code) > 0 {
		if dst.Code == nil {
			dst.Code = make(map[string]CodeEntry, len(src.Code))
		}
		for lang, entry := range src.Code {
			dst.Code[lang] = entry
		}
	}
}

// SyncRecord is the filtered projection of a PuzzleRecord exchanged with
// the companion server: progress and authored code only, never the puzzle
// description, keeping payloads small and avoiding redistribution of
// third-party content.
type SyncRecord struct {
	// ID is the puzzle number the projection belongs to.
	ID int `json:"ID"`
	// Solved reports whether the puzzle is solved, when known.
	Solved *bool `json:"Solved,omitempty"`
	// CorrectAnswer is the canonical answer, when known.
	CorrectAnswer string `json:"correct_answer,omitempty"`
	// CompletedOn is the completion timestamp, when known.
	CompletedOn string `json:"completed_on,omitempty"`
	// Code maps language name to the authored solution files.
	Code map[string]CodeEntry `json:"code,omitempty"`
}

// ProjectSync extracts the sync projection from a record. The second
// return value is false when the record carries no progress or code at
// all; such records are skipped when pushing to the companion server.
func ProjectSync(r PuzzleRecord) (SyncRecord, bool) {
	s := SyncRecord{
		ID:            r.ID,
		Solved:        r.Solved,
		CorrectAnswer: r.CorrectAnswer,
		CompletedOn:   r.CompletedOn,
		Code:          r.Code,
	}
	if s.Solved == nil && s.CorrectAnswer == "" && s.CompletedOn == "" && len(s.Code) == 0 {
		return SyncRecord{}, false
	}
	return s, true
}

// Record converts a sync projection back into a partial PuzzleRecord
// suitable for MergeUpdate.
func (s SyncRecord) Record() PuzzleRecord {
	return PuzzleRecord{
		ID:            s.ID,
		Solved:        s.Solved,
		CorrectAnswer: s.CorrectAnswer,
		CompletedOn:   s.CompletedOn,
		Code:          s.Code,
	}
}
