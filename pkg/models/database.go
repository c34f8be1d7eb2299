package models

// HistoryQuery filters a history listing, newest first. Zero values mean
// no filter; Artist matches as a case-insensitive substring.
type HistoryQuery struct {
	Limit  int
	Offset int
	Artist string
}
