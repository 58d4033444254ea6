package schema

import (
	"slices"
	"time"

	"mirai/pkg/chat"
)

type Genre string

const (
	GenreAction         Genre = "action"
	GenreAdventure      Genre = "adventure"
	GenreComedy         Genre = "comedy"
	GenreDrama          Genre = "drama"
	GenreFantasy        Genre = "fantasy"
	GenreHorror         Genre = "horror"
	GenreMystery        Genre = "mystery"
	GenreRomance        Genre = "romance"
	GenreScienceFiction Genre = "science fiction"
	GenreThriller       Genre = "thriller"
)

var Genres = []Genre{
	GenreAction, GenreAdventure, GenreComedy, GenreDrama, GenreFantasy,
	GenreHorror, GenreMystery, GenreRomance, GenreScienceFiction, GenreThriller,
}

func (g Genre) Valid() bool {
	return slices.Contains(Genres, g)
}

type Style string

const (
	StyleAnime      Style = "anime"
	StyleCartoon    Style = "cartoon"
	StyleComic      Style = "comic"
	StyleRealistic  Style = "realistic"
	StyleWatercolor Style = "watercolor"
)

var Styles = []Style{StyleAnime, StyleCartoon, StyleComic, StyleRealistic, StyleWatercolor}

func (s Style) Valid() bool {
	return slices.Contains(Styles, s)
}

// StoryNode is one branch of the story tree. Script and Subjects are fixed at creation;
// only Children grows and VideoURL is set once.
type StoryNode struct {
	ID           string     `json:"id"`
	ParentID     string     `json:"parent_id,omitempty"`
	Decision     string     `json:"decision,omitempty"`
	Script       Script     `json:"script"`
	Subjects     Subjects   `json:"subjects"`
	Chat         *chat.Chat `json:"chat"`
	Children     []string   `json:"children"`
	VideoURL     string     `json:"video_url,omitempty"`
	ThumbnailURL string     `json:"thumbnail_url,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

type Story struct {
	ID         string       `json:"id"`
	UserID     string       `json:"user_id"`
	Title      string       `json:"title"`
	Genre      Genre        `json:"genre"`
	Style      Style        `json:"style"`
	Language   string       `json:"language"`
	RootNodeID string       `json:"root_node_id"`
	Nodes      []*StoryNode `json:"nodes"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

func (s *Story) Node(id string) (*StoryNode, bool) {
	for _, n := range s.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return nil, false
}
