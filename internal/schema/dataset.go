package schema

// Dataset is the complete output of one run: all five star-schema tables,
// built in memory before anything is published.
type Dataset struct {
	Songs     []Song
	Artists   []Artist
	Users     []User
	Times     []TimeDim
	Songplays []Songplay
}
