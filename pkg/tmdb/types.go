package tmdb

// MoviePage is one page of /trending/movie/week.
type MoviePage struct {
	Page         int           `json:"page"`
	Results      []MovieResult `json:"results"`
	TotalPages   int           `json:"total_pages"`
	TotalResults int           `json:"total_results"`
}

type MovieResult struct {
	ID               int64    `json:"id"`
	Title            string   `json:"title"`
	Overview         string   `json:"overview"`
	ReleaseDate      string   `json:"release_date"`
	OriginalLanguage string   `json:"original_language"`
	Adult            bool     `json:"adult"`
	Popularity       *float64 `json:"popularity"`
	VoteAverage      *float64 `json:"vote_average"`
	VoteCount        *int     `json:"vote_count"`
}

type Credits struct {
	ID   int64        `json:"id"`
	Crew []CrewMember `json:"crew"`
}

type CrewMember struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Job        string `json:"job"`
	Department string `json:"department"`
}

// Directors keeps only the crew entries whose job is Director.
func (c *Credits) Directors() []CrewMember {
	var out []CrewMember
	for _, member := range c.Crew {
		if member.Job == "Director" {
			out = append(out, member)
		}
	}
	return out
}

type Person struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Biography    string `json:"biography"`
	Birthday     string `json:"birthday"`
	PlaceOfBirth string `json:"place_of_birth"`
}
