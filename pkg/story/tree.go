package story

import (
	"context"

	"mirai/pkg/apperrors"
	"mirai/pkg/schema"
)

// TreeNode is the navigable view of a story without scripts or conversation state.
type TreeNode struct {
	ID           string      `json:"id"`
	Decision     string      `json:"decision,omitempty"`
	Title        string      `json:"title"`
	VideoURL     string      `json:"video_url,omitempty"`
	ThumbnailURL string      `json:"thumbnail_url,omitempty"`
	Decisions    []string    `json:"decisions"`
	Children     []*TreeNode `json:"children"`
}

func (s *Service) Tree(ctx context.Context, userID, storyID string) (*TreeNode, error) {
	story, err := s.store.Get(ctx, storyID, userID)
	if err != nil {
		return nil, err
	}
	return BuildTree(story)
}

// BuildTree nests the story's nodes under the root following each node's children.
func BuildTree(story *schema.Story) (*TreeNode, error) {
	byID := make(map[string]*schema.StoryNode, len(story.Nodes))
	for _, n := range story.Nodes {
		byID[n.ID] = n
	}
	seen := make(map[string]bool, len(story.Nodes))

	var build func(id string) (*TreeNode, error)
	build = func(id string) (*TreeNode, error) {
		n, ok := byID[id]
		if !ok {
			return nil, &apperrors.NotFoundError{Kind: "node", ID: id}
		}
		if seen[id] {
			return nil, &apperrors.CompositionError{Stage: "tree", Err: errCycle(id)}
		}
		seen[id] = true

		t := &TreeNode{
			ID:           n.ID,
			Decision:     n.Decision,
			Title:        n.Script.Title,
			VideoURL:     n.VideoURL,
			ThumbnailURL: n.ThumbnailURL,
			Decisions:    append([]string{}, n.Script.Decisions...),
			Children:     []*TreeNode{},
		}
		for _, c := range n.Children {
			child, err := build(c)
			if err != nil {
				return nil, err
			}
			t.Children = append(t.Children, child)
		}
		return t, nil
	}
	return build(story.RootNodeID)
}

type errCycle string

func (e errCycle) Error() string { return "node " + string(e) + " appears twice in the tree" }
