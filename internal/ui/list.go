package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/sift/internal/models"
)

var _ list.Item = collectionItem{}

// collectionItem wraps [models.Collection] to implement [list.Item].
type collectionItem struct {
	collection models.Collection
}

func (i collectionItem) FilterValue() string { return i.collection.Name }
func (i collectionItem) Title() string {
	if i.collection.Kind == models.KindLiked {
		return fmt.Sprintf("♥ %s", i.collection.Name)
	}
	return i.collection.Name
}
func (i collectionItem) Description() string {
	return fmt.Sprintf("%d tracks", i.collection.TrackCount)
}
