package viewgen

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// CodeChunker implements AST-aware code chunking using tree-sitter, splitting
// a source file into one chunk per top-level symbol (function, method, type,
// const, var). Unsupported languages and parse failures fall back to a
// single whole-file chunk.
type CodeChunker struct {
	parser    *Parser
	extractor *SymbolExtractor
	registry  *LanguageRegistry
}

// NewCodeChunker creates a code chunker using the default language registry.
func NewCodeChunker() *CodeChunker {
	registry := DefaultRegistry()
	return &CodeChunker{
		parser:    NewParserWithRegistry(registry),
		extractor: NewSymbolExtractorWithRegistry(registry),
		registry:  registry,
	}
}

// Close releases chunker resources.
func (c *CodeChunker) Close() {
	if c.parser != nil {
		c.parser.Close()
	}
}

// SupportedExtensions returns file extensions this chunker handles.
func (c *CodeChunker) SupportedExtensions() []string {
	return c.registry.SupportedExtensions()
}

// Chunk splits a file into one chunk per top-level symbol.
func (c *CodeChunker) Chunk(ctx context.Context, file *FileInput) ([]*Chunk, error) {
	if len(file.Content) == 0 {
		return nil, nil
	}

	if _, supported := c.registry.GetByName(file.Language); !supported {
		return []*Chunk{c.wholeFileChunk(file)}, nil
	}

	tree, err := c.parser.Parse(ctx, file.Content, file.Language)
	if err != nil {
		return []*Chunk{c.wholeFileChunk(file)}, nil
	}

	symbolNodes := c.findSymbolNodes(tree, file.Language)
	if len(symbolNodes) == 0 {
		return []*Chunk{c.wholeFileChunk(file)}, nil
	}

	now := time.Now()
	chunks := make([]*Chunk, 0, len(symbolNodes))
	for _, info := range symbolNodes {
		chunks = append(chunks, c.createChunk(info, tree, file, now))
	}

	return chunks, nil
}

// wholeFileChunk treats an entire file as a single chunk, used when the
// language isn't recognized or the parser can't produce a usable tree.
func (c *CodeChunker) wholeFileChunk(file *FileInput) *Chunk {
	content := string(file.Content)
	return &Chunk{
		ID:        generateChunkID(file.Path, content),
		FilePath:  file.Path,
		Content:   content,
		Language:  file.Language,
		StartLine: 1,
		EndLine:   strings.Count(content, "\n") + 1,
		CreatedAt: time.Now(),
	}
}

// symbolNodeInfo holds a symbol node with its extracted symbol info.
type symbolNodeInfo struct {
	node   *Node
	symbol *Symbol
}

// findSymbolNodes finds all top-level symbol-defining nodes.
func (c *CodeChunker) findSymbolNodes(tree *Tree, language string) []*symbolNodeInfo {
	config, ok := c.registry.GetByName(language)
	if !ok {
		return []*symbolNodeInfo{}
	}

	var symbolNodes []*symbolNodeInfo

	tree.Root.Walk(func(n *Node) bool {
		if n.Type == "lexical_declaration" || n.Type == "variable_declaration" {
			if sym := c.extractor.extractSpecialSymbol(n, tree.Source, language); sym != nil {
				symbolNodes = append(symbolNodes, &symbolNodeInfo{node: n, symbol: sym})
				return true
			}
		}

		if symType, isSymbol := classifyNode(n.Type, config); isSymbol {
			if sym := c.extractSymbol(n, tree, symType, language); sym != nil {
				symbolNodes = append(symbolNodes, &symbolNodeInfo{node: n, symbol: sym})
			}
		}
		return true
	})

	return symbolNodes
}

// extractSymbol extracts symbol info from a node.
func (c *CodeChunker) extractSymbol(n *Node, tree *Tree, symType SymbolType, language string) *Symbol {
	name := c.extractor.extractName(n, tree.Source, language)
	if name == "" {
		return nil
	}

	return &Symbol{
		Name:       name,
		Type:       symType,
		StartLine:  int(n.StartPoint.Row) + 1,
		EndLine:    int(n.EndPoint.Row) + 1,
		Signature:  c.extractor.extractSignature(n, tree.Source, symType, language),
		DocComment: c.extractor.extractDocComment(n, tree.Source, language),
	}
}

// createChunk builds the Chunk for a single symbol node, including its doc
// comment in Content when one precedes it.
func (c *CodeChunker) createChunk(info *symbolNodeInfo, tree *Tree, file *FileInput, now time.Time) *Chunk {
	node := info.node
	content := string(tree.Source[node.StartByte:node.EndByte])
	if info.symbol.DocComment != "" {
		content = c.withDocComment(node, tree.Source, info.symbol.DocComment)
	}

	return &Chunk{
		ID:        generateChunkID(file.Path, content),
		FilePath:  file.Path,
		Content:   content,
		Language:  file.Language,
		StartLine: info.symbol.StartLine,
		EndLine:   info.symbol.EndLine,
		Symbol:    info.symbol,
		CreatedAt: now,
	}
}

// withDocComment extends a symbol node's content backward to include its
// preceding doc comment lines.
func (c *CodeChunker) withDocComment(n *Node, source []byte, docComment string) string {
	lineStart := int(n.StartByte)
	for lineStart > 0 && source[lineStart-1] != '\n' {
		lineStart--
	}

	docLines := strings.Count(docComment, "\n") + 1
	for i := 0; i < docLines && lineStart > 0; i++ {
		lineStart--
		for lineStart > 0 && source[lineStart-1] != '\n' {
			lineStart--
		}
	}

	return string(source[lineStart:n.EndByte])
}

// generateChunkID generates a content-addressable chunk ID from file path and
// content. The ID is derived from filePath and a content hash, making it
// stable across line number shifts while preserving file context. This is
// critical for idempotent re-indexing when files are modified between
// indexing runs.
//
// Properties:
//   - Same content in same file = same ID (stable across line shifts)
//   - Different content in same file = different ID (forces re-indexing)
//   - Same content in different files = different IDs (preserves file context)
func generateChunkID(filePath string, content string) string {
	contentHash := sha256.Sum256([]byte(content))
	contentHashStr := hex.EncodeToString(contentHash[:])[:16]

	input := fmt.Sprintf("%s:%s", filePath, contentHashStr)
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:])[:16]
}
