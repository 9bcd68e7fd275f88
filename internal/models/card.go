package models

import (
	"math"
	"strconv"
)

// Card is a Yoto "Make Your Own" playlist.
type Card struct {
	CardID   string       `json:"cardId"`
	Title    string       `json:"title"`
	Metadata CardMetadata `json:"metadata"`
	Content  CardContent  `json:"content"`
}

// CardMetadata holds the descriptive fields of a [Card].
type CardMetadata struct {
	Description string   `json:"description,omitempty"`
	Author      string   `json:"author,omitempty"`
	Category    string   `json:"category,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Cover       Cover    `json:"cover"`
	Media       Media    `json:"media"`
}

// Cover lists the cover image variants. Any of them may be empty.
type Cover struct {
	ImageL   string `json:"imageL,omitempty"`
	ImageM   string `json:"imageM,omitempty"`
	ImageS   string `json:"imageS,omitempty"`
	ImageURL string `json:"imageUrl,omitempty"`
}

// Media carries totals precomputed by the API.
type Media struct {
	Duration float64 `json:"duration,omitempty"` // seconds
	FileSize int64   `json:"fileSize,omitempty"` // bytes
}

type CardContent struct {
	Chapters []Chapter `json:"chapters,omitempty"`
}

// Chapter groups one or more tracks. The API often leaves track titles empty and names the chapter instead.
type Chapter struct {
	Key      string         `json:"key,omitempty"`
	Title    string         `json:"title,omitempty"`
	Duration float64        `json:"duration,omitempty"`
	Display  *Display       `json:"display,omitempty"`
	Tracks   []ChapterTrack `json:"tracks,omitempty"`
}

type ChapterTrack struct {
	Key      string   `json:"key,omitempty"`
	Title    string   `json:"title,omitempty"`
	Duration float64  `json:"duration,omitempty"`
	Display  *Display `json:"display,omitempty"`
}

// Display is the 16x16 icon shown on the player for a chapter or track.
type Display struct {
	Icon16x16 string `json:"icon16x16,omitempty"`
}

// Track is a flattened, displayable entry of a card's track list.
type Track struct {
	Title        string `json:"title"`
	Duration     int    `json:"duration"`
	ChapterTitle string `json:"chapterTitle,omitempty"`
	Icon         string `json:"icon,omitempty"`
}

// TotalDuration returns the playlist length in whole seconds.
//
// The API total wins when present. Otherwise each chapter contributes its own duration or, failing that, the sum of its tracks.
func TotalDuration(c *Card) int {
	if c == nil {
		return 0
	}
	if c.Metadata.Media.Duration > 0 {
		return seconds(c.Metadata.Media.Duration)
	}

	var total float64
	for _, ch := range c.Content.Chapters {
		if ch.Duration > 0 {
			total += ch.Duration
			continue
		}
		for _, tr := range ch.Tracks {
			total += tr.Duration
		}
	}
	return seconds(total)
}

// ExtractTracks flattens the chapters of c into the list shown on a card.
//
// Every track becomes an entry titled after its chapter, or "Piste N" when the chapter has no title, where N counts emitted entries from 1.
// A titled chapter without tracks is a single entry. Untitled chapters without tracks are skipped.
func ExtractTracks(c *Card) []Track {
	if c == nil {
		return nil
	}

	var tracks []Track
	for _, ch := range c.Content.Chapters {
		if len(ch.Tracks) > 0 {
			for _, tr := range ch.Tracks {
				title := ch.Title
				if title == "" {
					title = pisteTitle(len(tracks) + 1)
				}
				d := tr.Duration
				if d <= 0 {
					d = ch.Duration
				}
				tracks = append(tracks, Track{
					Title:        title,
					Duration:     seconds(d),
					ChapterTitle: ch.Title,
					Icon:         icon(tr.Display, ch.Display),
				})
			}
			continue
		}

		if ch.Title != "" {
			tracks = append(tracks, Track{
				Title:        ch.Title,
				Duration:     seconds(ch.Duration),
				ChapterTitle: ch.Title,
				Icon:         icon(nil, ch.Display),
			})
		}
	}
	return tracks
}

// CoverURL returns the largest available cover image, or "" when the card has none.
func CoverURL(c *Card) string {
	if c == nil {
		return ""
	}
	cover := c.Metadata.Cover
	for _, u := range []string{cover.ImageL, cover.ImageM, cover.ImageS, cover.ImageURL} {
		if u != "" {
			return u
		}
	}
	return ""
}

func seconds(v float64) int {
	if v <= 0 {
		return 0
	}
	return int(math.Floor(v))
}

func pisteTitle(n int) string {
	return "Piste " + strconv.Itoa(n)
}

func icon(track, chapter *Display) string {
	if track != nil && track.Icon16x16 != "" {
		return track.Icon16x16
	}
	if chapter != nil {
		return chapter.Icon16x16
	}
	return ""
}
