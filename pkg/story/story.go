// Package story owns the story tree: it creates roots and branches, and nothing is
// stored until a node's script and video are complete.
package story

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/segmentio/ksuid"

	"mirai/pkg/apperrors"
	"mirai/pkg/audiovisual"
	"mirai/pkg/chat"
	"mirai/pkg/language"
	"mirai/pkg/schema"
	"mirai/pkg/script"
	"mirai/pkg/storage"
	"mirai/pkg/utils"
)

type Assembler interface {
	Generate(ctx context.Context, req script.Request) (*script.Result, error)
}

type Producer interface {
	Produce(ctx context.Context, job audiovisual.Job) (*audiovisual.Result, error)
}

type Service struct {
	store   storage.Store
	scripts Assembler
	media   Producer
	dataDir string
	baseURL string

	now   func() time.Time
	newID func() string

	locks sync.Map // story id -> *sync.Mutex
}

func NewService(store storage.Store, scripts Assembler, media Producer, dataDir, baseURL string) *Service {
	return &Service{
		store:   store,
		scripts: scripts,
		media:   media,
		dataDir: dataDir,
		baseURL: strings.TrimRight(baseURL, "/"),
		now:     func() time.Time { return time.Now().UTC() },
		newID:   func() string { return ksuid.New().String() },
	}
}

type CreateRequest struct {
	Genre    schema.Genre `json:"genre"`
	Language string       `json:"language_code"`
	Style    schema.Style `json:"style"`
}

// CreateStory generates the root node and stores the new story.
func (s *Service) CreateStory(ctx context.Context, userID string, req CreateRequest) (*schema.Story, error) {
	if !req.Genre.Valid() {
		return nil, &apperrors.InvalidInputError{Field: "genre", Reason: fmt.Sprintf("%q is not one of %v", req.Genre, schema.Genres)}
	}
	if req.Language == "" {
		req.Language = language.Default
	}
	if _, err := language.Validate(req.Language); err != nil {
		return nil, err
	}
	if req.Style == "" {
		req.Style = schema.StyleAnime
	}
	if !req.Style.Valid() {
		return nil, &apperrors.InvalidInputError{Field: "style", Reason: fmt.Sprintf("%q is not supported", req.Style)}
	}

	now := s.now()
	story := &schema.Story{
		ID:        s.newID(),
		UserID:    userID,
		Genre:     req.Genre,
		Style:     req.Style,
		Language:  req.Language,
		CreatedAt: now,
		UpdatedAt: now,
	}
	log.Info("creating story", "story", story.ID, "user", userID, "genre", story.Genre, "language", story.Language)

	root, err := s.generateNode(ctx, story, nil, "")
	if err != nil {
		return nil, err
	}
	story.Title = root.Script.Title
	story.RootNodeID = root.ID
	story.Nodes = []*schema.StoryNode{root}

	if err := s.store.Create(ctx, story); err != nil {
		s.discard(story.ID, root.ID)
		return nil, err
	}
	return story, nil
}

// CreateBranch continues the story from parentID with the user's decision.
func (s *Service) CreateBranch(ctx context.Context, userID, storyID, parentID, decision string) (*schema.Story, error) {
	decision = strings.TrimSpace(decision)
	if decision == "" {
		return nil, &apperrors.InvalidInputError{Field: "decision", Reason: "must not be empty"}
	}
	story, err := s.store.Get(ctx, storyID, userID)
	if err != nil {
		return nil, err
	}
	parent, ok := story.Node(parentID)
	if !ok {
		return nil, &apperrors.NotFoundError{Kind: "node", ID: parentID}
	}
	log.Info("creating branch", "story", storyID, "parent", parentID, "decision", decision)

	node, err := s.generateNode(ctx, story, parent, decision)
	if err != nil {
		return nil, err
	}

	// Generation takes minutes; commit against a fresh copy so concurrent branches
	// of the same story do not overwrite each other.
	mu := s.lock(storyID)
	mu.Lock()
	defer mu.Unlock()

	story, err = s.store.Get(ctx, storyID, userID)
	if err != nil {
		s.discard(storyID, node.ID)
		return nil, err
	}
	parent, ok = story.Node(parentID)
	if !ok {
		s.discard(storyID, node.ID)
		return nil, &apperrors.NotFoundError{Kind: "node", ID: parentID}
	}
	parent.Children = append(parent.Children, node.ID)
	parent.UpdatedAt = node.CreatedAt
	story.Nodes = append(story.Nodes, node)
	story.UpdatedAt = node.CreatedAt

	if err := s.store.Update(ctx, story); err != nil {
		s.discard(storyID, node.ID)
		return nil, err
	}
	return story, nil
}

// generateNode runs the script and media pipelines for one node. The parent's chat and
// subjects are copied, never modified.
func (s *Service) generateNode(ctx context.Context, story *schema.Story, parent *schema.StoryNode, decision string) (*schema.StoryNode, error) {
	node := &schema.StoryNode{ID: s.newID(), Decision: decision, Children: []string{}}
	req := script.Request{Genre: story.Genre, Language: story.Language, Decision: decision}
	if parent != nil {
		node.ParentID = parent.ID
		req.Chat = parent.Chat.Clone()
		req.Subjects = parent.Subjects.Clone()
	} else {
		req.Chat = chat.New()
	}

	res, err := s.scripts.Generate(ctx, req)
	if err != nil {
		return nil, err
	}

	work := filepath.Join(s.dataDir, "work", story.ID+"_"+node.ID)
	defer os.RemoveAll(work)

	media, err := s.media.Produce(ctx, audiovisual.Job{
		Script:    res.Script,
		Subjects:  res.Subjects,
		Language:  story.Language,
		Style:     story.Style,
		Dir:       work,
		Output:    s.videoFile(story.ID, node.ID),
		Thumbnail: s.thumbnailFile(story.ID, node.ID),
	})
	if err != nil {
		s.discard(story.ID, node.ID)
		return nil, err
	}

	now := s.now()
	node.Script = res.Script
	node.Subjects = media.Subjects
	node.Chat = res.Chat
	node.VideoURL = fmt.Sprintf("%s/videos/stories/%s/nodes/%s", s.baseURL, story.ID, node.ID)
	node.ThumbnailURL = fmt.Sprintf("%s/thumbnails/stories/%s/nodes/%s", s.baseURL, story.ID, node.ID)
	node.CreatedAt = now
	node.UpdatedAt = now
	return node, nil
}

func (s *Service) Get(ctx context.Context, userID, storyID string) (*schema.Story, error) {
	return s.store.Get(ctx, storyID, userID)
}

func (s *Service) List(ctx context.Context, userID string) ([]*schema.Story, error) {
	return s.store.List(ctx, userID)
}

// Delete removes the story and every node's media.
func (s *Service) Delete(ctx context.Context, userID, storyID string) error {
	story, err := s.store.Get(ctx, storyID, userID)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, storyID, userID); err != nil {
		return err
	}
	for _, n := range story.Nodes {
		s.discard(storyID, n.ID)
	}
	s.locks.Delete(storyID)
	log.Info("story deleted", "story", storyID, "nodes", len(story.Nodes))
	return nil
}

// VideoPath returns the local file of a node's video after checking ownership.
func (s *Service) VideoPath(ctx context.Context, userID, storyID, nodeID string) (string, error) {
	return s.mediaPath(ctx, userID, storyID, nodeID, s.videoFile)
}

func (s *Service) ThumbnailPath(ctx context.Context, userID, storyID, nodeID string) (string, error) {
	return s.mediaPath(ctx, userID, storyID, nodeID, s.thumbnailFile)
}

func (s *Service) mediaPath(ctx context.Context, userID, storyID, nodeID string, file func(string, string) string) (string, error) {
	story, err := s.store.Get(ctx, storyID, userID)
	if err != nil {
		return "", err
	}
	if _, ok := story.Node(nodeID); !ok {
		return "", &apperrors.NotFoundError{Kind: "node", ID: nodeID}
	}
	path := file(storyID, nodeID)
	if !utils.Exists(path) {
		return "", &apperrors.NotFoundError{Kind: "media", ID: storyID + "/" + nodeID}
	}
	return path, nil
}

func (s *Service) videoFile(storyID, nodeID string) string {
	return filepath.Join(s.dataDir, "videos", storyID+"_"+nodeID+".mp4")
}

func (s *Service) thumbnailFile(storyID, nodeID string) string {
	return filepath.Join(s.dataDir, "thumbnails", storyID+"_"+nodeID+".webp")
}

func (s *Service) discard(storyID, nodeID string) {
	for _, p := range []string{s.videoFile(storyID, nodeID), s.thumbnailFile(storyID, nodeID)} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			log.Warn("failed to remove media", "path", p, "err", err)
		}
	}
}

func (s *Service) lock(storyID string) *sync.Mutex {
	mu, _ := s.locks.LoadOrStore(storyID, new(sync.Mutex))
	return mu.(*sync.Mutex)
}
