// Package grouping groups comments for display by day, author and stamp.
package grouping

import (
	"sort"
	"time"

	"github.com/tfkr-ae/showcase/domain"
)

// DateLayout is the layout of CommentGroup.Date.
const DateLayout = "2006-01-02"

// CommentGroup holds the comments one author (identified by nickname and stamp)
// posted on one calendar day.
type CommentGroup struct {
	Date     string
	Author   string
	Stamp    string
	Comments []domain.Comment
}

type groupKey struct {
	date, author, stamp string
}

// Group groups comments by (calendar date in loc, author, stamp). Comments keep their
// input order inside a group. Groups are ordered by date, newest first, then by author
// and stamp ascending. A nil loc means UTC.
func Group(comments []domain.Comment, loc *time.Location) []CommentGroup {
	if loc == nil {
		loc = time.UTC
	}

	index := make(map[groupKey]int)
	groups := []CommentGroup{}
	for _, comment := range comments {
		key := groupKey{
			date:   comment.Timestamp.In(loc).Format(DateLayout),
			author: comment.Author,
			stamp:  comment.Stamp,
		}
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, CommentGroup{Date: key.date, Author: key.author, Stamp: key.stamp})
		}
		groups[i].Comments = append(groups[i].Comments, comment)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		a, b := groups[i], groups[j]
		if a.Date != b.Date {
			return a.Date > b.Date
		}
		if a.Author != b.Author {
			return a.Author < b.Author
		}
		return a.Stamp < b.Stamp
	})
	return groups
}
