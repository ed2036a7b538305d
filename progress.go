package gamestate

import (
	"fmt"

	"github.com/goliatone/go-gamestate/pkg/store"
)

// Chapter describes one chapter of a story. SceneCount is the highest scene
// index reachable before the chapter rolls over.
type Chapter struct {
	ID         string `json:"id" yaml:"id"`
	Title      string `json:"title,omitempty" yaml:"title,omitempty"`
	SceneCount int    `json:"scene_count" yaml:"scene_count"`
}

// StoryLayout is the static chapter/scene structure progress advances through.
type StoryLayout struct {
	ID       string    `json:"id,omitempty" yaml:"id,omitempty"`
	Chapters []Chapter `json:"chapters" yaml:"chapters"`
}

// NewStoryLayout builds a layout from per-chapter scene counts.
func NewStoryLayout(sceneCounts ...int) StoryLayout {
	chapters := make([]Chapter, len(sceneCounts))
	for i, count := range sceneCounts {
		chapters[i] = Chapter{ID: fmt.Sprintf("chapter-%d", i), SceneCount: count}
	}
	return StoryLayout{Chapters: chapters}
}

// ParseStoryLayout decodes a layout document with codec and validates it.
func ParseStoryLayout(data []byte, codec store.Codec) (StoryLayout, error) {
	if codec == nil {
		codec = store.JSONCodec()
	}
	var layout StoryLayout
	if err := codec.Unmarshal(data, &layout); err != nil {
		return StoryLayout{}, invalidArgument("decode %s story layout: %v", codec.Name(), err)
	}
	if err := layout.Validate(); err != nil {
		return StoryLayout{}, err
	}
	return layout, nil
}

// Validate checks the layout has chapters with non-negative scene counts.
func (l StoryLayout) Validate() error {
	if len(l.Chapters) == 0 {
		return invalidArgument("story layout has no chapters")
	}
	for i, chapter := range l.Chapters {
		if chapter.SceneCount < 0 {
			return invalidArgument("chapter %d has negative scene count %d", i, chapter.SceneCount)
		}
	}
	return nil
}

// Step reports what an advance call did.
type Step int

const (
	// StepNone means nothing moved (story already completed).
	StepNone Step = iota
	// StepScene means the scene index moved within the same chapter.
	StepScene
	// StepChapter means the chapter rolled over and the scene reset to 0.
	StepChapter
	// StepCompleted means the final chapter was passed and the story ended.
	StepCompleted
)

func (s Step) String() string {
	switch s {
	case StepNone:
		return "none"
	case StepScene:
		return "scene"
	case StepChapter:
		return "chapter"
	case StepCompleted:
		return "completed"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// StoryProgress locates the player in the narrative. Indices only move
// forward; Completed is terminal for the current story.
type StoryProgress struct {
	StoryIndex   int  `json:"story_index" yaml:"story_index"`
	ChapterIndex int  `json:"chapter_index" yaml:"chapter_index"`
	SceneIndex   int  `json:"scene_index" yaml:"scene_index"`
	Completed    bool `json:"completed,omitempty" yaml:"completed,omitempty"`
}

// AdvanceScene moves to the next scene. Passing the chapter's scene bound
// rolls into the next chapter at scene 0; passing the last chapter completes
// the story.
func (p StoryProgress) AdvanceScene(layout StoryLayout) (StoryProgress, Step, error) {
	chapter, err := p.currentChapter(layout)
	if err != nil {
		return p, StepNone, err
	}
	if p.SceneIndex+1 <= chapter.SceneCount {
		next := p
		next.SceneIndex++
		return next, StepScene, nil
	}
	return p.nextChapter(layout)
}

// AdvanceChapter skips the rest of the current chapter.
func (p StoryProgress) AdvanceChapter(layout StoryLayout) (StoryProgress, Step, error) {
	if _, err := p.currentChapter(layout); err != nil {
		return p, StepNone, err
	}
	return p.nextChapter(layout)
}

// NextStory starts the following story from its first chapter.
func (p StoryProgress) NextStory() StoryProgress {
	return StoryProgress{StoryIndex: p.StoryIndex + 1}
}

func (p StoryProgress) nextChapter(layout StoryLayout) (StoryProgress, Step, error) {
	next := p
	if p.ChapterIndex+1 >= len(layout.Chapters) {
		next.Completed = true
		return next, StepCompleted, nil
	}
	next.ChapterIndex++
	next.SceneIndex = 0
	return next, StepChapter, nil
}

func (p StoryProgress) currentChapter(layout StoryLayout) (Chapter, error) {
	if p.Completed {
		return Chapter{}, ErrStoryCompleted
	}
	if err := layout.Validate(); err != nil {
		return Chapter{}, err
	}
	if p.ChapterIndex < 0 || p.ChapterIndex >= len(layout.Chapters) {
		return Chapter{}, invalidArgument("chapter index %d outside layout of %d chapters", p.ChapterIndex, len(layout.Chapters))
	}
	return layout.Chapters[p.ChapterIndex], nil
}
