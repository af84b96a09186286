package model

import "time"

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

const (
	DefaultStickyWidth  = 300
	DefaultStickyHeight = 200
	DefaultStickyColor  = "rgba(247, 245, 158, 0.85)"
	DefaultZIndex       = 1000
	MainThreadTitle     = "Main Thread"
	DefaultMindmapName  = "My Mindmap"
)

// Position is a point on the canvas.
type Position struct {
	X float64 `json:"x" xml:"x,attr" yaml:"x" validate:"finite"`
	Y float64 `json:"y" xml:"y,attr" yaml:"y" validate:"finite"`
}

// Size is the extent of a sticky on the canvas.
type Size struct {
	Width  float64 `json:"width" xml:"width,attr" yaml:"width" validate:"finite,gte=0"`
	Height float64 `json:"height" xml:"height,attr" yaml:"height" validate:"finite,gte=0"`
}

// Message is a single turn in a conversation.
type Message struct {
	ID              string    `json:"id" xml:"id,attr" yaml:"id" validate:"required"`
	Role            Role      `json:"role" xml:"role,attr" yaml:"role" validate:"required,oneof=user assistant"`
	Content         string    `json:"content" xml:"content" yaml:"content"`
	Timestamp       time.Time `json:"timestamp" xml:"timestamp,attr" yaml:"timestamp" validate:"required"`
	SelectedText    string    `json:"selectedText,omitempty" xml:"selected_text,omitempty" yaml:"selectedText,omitempty"`
	ParentMessageID string    `json:"parentMessageId,omitempty" xml:"parent_message_id,attr,omitempty" yaml:"parentMessageId,omitempty"`
}

// Thread is an ordered conversation, possibly branched from another thread.
type Thread struct {
	ID             string            `json:"id" xml:"id,attr" yaml:"id" validate:"required"`
	Title          string            `json:"title" xml:"title,attr" yaml:"title"`
	Messages       []Message         `json:"messages" xml:"messages>message" yaml:"messages" validate:"dive"`
	ParentThreadID string            `json:"parentThreadId,omitempty" xml:"parent_thread_id,attr,omitempty" yaml:"parentThreadId,omitempty"`
	BranchPoint    string            `json:"branchPoint,omitempty" xml:"branch_point,attr,omitempty" yaml:"branchPoint,omitempty"`
	IsMainThread   bool              `json:"isMainThread" xml:"main,attr" yaml:"isMainThread"`
	CreatedAt      time.Time         `json:"createdAt" xml:"created,attr" yaml:"createdAt" validate:"required"`
	UpdatedAt      time.Time         `json:"updatedAt" xml:"updated,attr" yaml:"updatedAt" validate:"required"`
	Metadata       map[string]string `json:"metadata,omitempty" xml:"-" yaml:"metadata,omitempty"`
}

// Sticky is the canvas proxy of a thread.
type Sticky struct {
	ID          string    `json:"id" xml:"id,attr" yaml:"id" validate:"required"`
	ThreadID    string    `json:"threadId" xml:"thread_id,attr" yaml:"threadId" validate:"required"`
	Position    Position  `json:"position" xml:"position" yaml:"position"`
	Size        Size      `json:"size" xml:"size" yaml:"size"`
	Title       string    `json:"title" xml:"title,attr" yaml:"title"`
	Content     string    `json:"content" xml:"content" yaml:"content"`
	Color       string    `json:"color" xml:"color,attr" yaml:"color"`
	IsMinimized bool      `json:"isMinimized" xml:"minimized,attr" yaml:"isMinimized"`
	IsExpanded  bool      `json:"isExpanded" xml:"expanded,attr" yaml:"isExpanded"`
	ChatHistory []Message `json:"chatHistory" xml:"chat>message" yaml:"chatHistory" validate:"dive"`
	StackID     string    `json:"stackId,omitempty" xml:"stack_id,attr,omitempty" yaml:"stackId,omitempty"`
	StackIndex  *int      `json:"stackIndex,omitempty" xml:"stack_index,attr,omitempty" yaml:"stackIndex,omitempty"`
	ZIndex      int       `json:"zIndex" xml:"z_index,attr" yaml:"zIndex"`
	PreviewText string    `json:"previewText,omitempty" xml:"preview,omitempty" yaml:"previewText,omitempty"`
	CreatedAt   time.Time `json:"createdAt" xml:"created,attr" yaml:"createdAt" validate:"required"`
	UpdatedAt   time.Time `json:"updatedAt" xml:"updated,attr" yaml:"updatedAt" validate:"required"`
}

// Mindmap holds every thread and sticky of a workspace.
type Mindmap struct {
	ID             string    `json:"id" xml:"id,attr" yaml:"id" validate:"required"`
	Name           string    `json:"name" xml:"name,attr" yaml:"name" validate:"required"`
	ActiveThreadID string    `json:"activeThreadId" xml:"active_thread_id,attr" yaml:"activeThreadId" validate:"required"`
	MainThreadID   string    `json:"mainThreadId" xml:"main_thread_id,attr" yaml:"mainThreadId" validate:"required"`
	Stickies       []Sticky  `json:"stickies" xml:"stickies>sticky" yaml:"stickies" validate:"dive"`
	Threads        []Thread  `json:"threads" xml:"threads>thread" yaml:"threads" validate:"required,min=1,dive"`
	CreatedAt      time.Time `json:"createdAt" xml:"created,attr" yaml:"createdAt" validate:"required"`
	UpdatedAt      time.Time `json:"updatedAt" xml:"updated,attr" yaml:"updatedAt" validate:"required"`
}

// MindmapInfo is the storage listing of a mindmap.
type MindmapInfo struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Threads   int       `json:"threads"`
	Stickies  int       `json:"stickies"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Context describes material related to a thread, as returned by similarity search.
type Context struct {
	ThreadID         string    `json:"threadId" validate:"required"`
	StickyID         string    `json:"stickyId,omitempty"`
	RelevantMessages []Message `json:"relevantMessages" validate:"dive"`
	RelevantThreads  []string  `json:"relevantThreads"`
	Embeddings       []float64 `json:"embeddings,omitempty"`
	Similarity       float64   `json:"similarity,omitempty"`
}

// BranchRequest asks for a new thread spawned from highlighted text.
type BranchRequest struct {
	SelectedText    string   `json:"selectedText" validate:"required"`
	SourceMessageID string   `json:"sourceMessageId" validate:"required"`
	SourceThreadID  string   `json:"sourceThreadId" validate:"required"`
	NewQuery        string   `json:"newQuery"`
	Position        Position `json:"position"`
}

// StickyUpdate carries the fields to merge into a sticky. Nil fields are left alone.
type StickyUpdate struct {
	Title       *string   `json:"title,omitempty"`
	Content     *string   `json:"content,omitempty"`
	Color       *string   `json:"color,omitempty"`
	Position    *Position `json:"position,omitempty"`
	Size        *Size     `json:"size,omitempty" validate:"omitempty"`
	IsMinimized *bool     `json:"isMinimized,omitempty"`
	IsExpanded  *bool     `json:"isExpanded,omitempty"`
	ZIndex      *int      `json:"zIndex,omitempty"`
	PreviewText *string   `json:"previewText,omitempty"`
}
