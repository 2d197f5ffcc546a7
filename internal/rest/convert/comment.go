package convert

import (
	"github.com/robalyx/my2cents/internal/database/types"
	restTypes "github.com/robalyx/my2cents/internal/rest/types"
	"github.com/robalyx/my2cents/internal/visibility"
)

// Render converts comment bodies to HTML.
type Render func(source string) (string, error)

// Comment converts a visibility view to its REST representation.
// A body that fails to render is sent without HTML.
func Comment(view visibility.View, render Render) restTypes.Comment {
	comment := restTypes.Comment{
		ID:        view.ID,
		ReplyTo:   view.ReplyTo,
		Comment:   view.Body,
		CreatedAt: view.CreatedAt,
		CanReply:  view.CanReply,
		Own:       view.Own,
		Approved:  view.Approved,
		Author: restTypes.Author{
			Name: view.Author,
			URL:  view.AuthorURL,
			ID:   view.AuthorID,
		},
	}

	if render != nil {
		if html, err := render(view.Body); err == nil {
			comment.HTML = html
		}
	}

	if view.Status != nil {
		status := view.Status.String()
		comment.Status = &status
	}

	if view.AuthorStatus != nil {
		status := view.AuthorStatus.String()
		comment.Author.Status = &status
	}

	return comment
}

// Comments converts a thread.
func Comments(views []visibility.View, render Render) []restTypes.Comment {
	out := make([]restTypes.Comment, 0, len(views))
	for _, view := range views {
		out = append(out, Comment(view, render))
	}

	return out
}

// Viewer converts the signed in user, returning nil for anonymous requests.
func Viewer(user *types.User, viewer visibility.Viewer) *restTypes.Viewer {
	if user == nil {
		return nil
	}

	return &restTypes.Viewer{
		ID:    user.ID,
		Name:  user.Label(),
		Admin: viewer.Administrator,
	}
}
