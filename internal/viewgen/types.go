package viewgen

import (
	"context"
	"time"
)

// Chunk is one index record a view's indexing function derives from a
// source document: the span of a single top-level symbol (or, for
// content a parser can't recognize, the whole file) plus the symbol
// info extracted from it, ready to convert into a document.Document.
type Chunk struct {
	ID        string // content-addressable: stable across line shifts
	FilePath  string // relative to the indexed root
	Content   string // the symbol's source text, doc comment included
	Language  string // go, typescript, etc.
	StartLine int     // 1-indexed
	EndLine   int     // inclusive
	Symbol    *Symbol // nil for the whole-file fallback chunk
	CreatedAt time.Time
}

// FileInput is input for the Chunker interface.
type FileInput struct {
	Path     string // Relative path
	Content  []byte // File content
	Language string // go, typescript, etc.
}

// Chunker splits a file into chunks.
type Chunker interface {
	Chunk(ctx context.Context, file *FileInput) ([]*Chunk, error)
	SupportedExtensions() []string
}

// SymbolType represents the kind of code symbol.
type SymbolType string

const (
	SymbolTypeFunction  SymbolType = "function"
	SymbolTypeClass     SymbolType = "class"
	SymbolTypeInterface SymbolType = "interface"
	SymbolTypeType      SymbolType = "type"
	SymbolTypeVariable  SymbolType = "variable"
	SymbolTypeConstant  SymbolType = "constant"
	SymbolTypeMethod    SymbolType = "method"
)

// Symbol is a code symbol extracted from parsing.
type Symbol struct {
	Name       string
	Type       SymbolType
	StartLine  int
	EndLine    int
	Signature  string
	DocComment string
}

// Tree is a parsed AST.
type Tree struct {
	Root     *Node
	Source   []byte
	Language string
}

// Node is a node in the AST.
type Node struct {
	Type       string
	StartByte  uint32
	EndByte    uint32
	StartPoint Point
	EndPoint   Point
	Children   []*Node
	HasError   bool
}

// Point is a position in the source code.
type Point struct {
	Row    uint32 // 0-indexed line number
	Column uint32
}

// LanguageConfig holds the tree-sitter node types that mark a symbol
// boundary in one language.
type LanguageConfig struct {
	Name       string
	Extensions []string

	FunctionTypes  []string
	ClassTypes     []string
	InterfaceTypes []string
	MethodTypes    []string
	TypeDefTypes   []string
	ConstantTypes  []string
	VariableTypes  []string
}
