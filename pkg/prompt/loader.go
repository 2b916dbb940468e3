package prompt

import (
	"embed"
	"encoding/json"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/killallgit/promptforge/pkg/errors"
	"github.com/killallgit/promptforge/pkg/logger"
	"github.com/killallgit/promptforge/pkg/template"
)

// documentLoader turns raw documents into prompts. It is shared by the
// file, embed and string loaders.
type documentLoader struct {
	config Config
}

func (d documentLoader) template(data []byte, format DocumentFormat) (*template.Template, error) {
	if format == DocumentText {
		return template.New(strings.TrimSuffix(string(data), "\n"))
	}

	jsonData, err := toJSON(data, format)
	if err != nil {
		return nil, err
	}
	var cfg template.Config
	if err := decodeJSON(jsonData, &cfg); err != nil {
		return nil, err
	}
	return cfg.Build()
}

// chat accepts both the serialized {"type","value"} entries and hand-written
// {"role","template"} definitions.
func (d documentLoader) chat(data []byte, format DocumentFormat) (*ChatTemplate, error) {
	if format == DocumentText {
		return nil, errors.Unsupported("chat templates must be in JSON, TOML or YAML format")
	}

	jsonData, err := toJSON(data, format)
	if err != nil {
		return nil, err
	}

	var shape struct {
		Messages []map[string]json.RawMessage `json:"messages"`
	}
	if err := decodeJSON(jsonData, &shape); err != nil {
		return nil, err
	}

	if len(shape.Messages) > 0 && isDefinitionList(shape.Messages) {
		var defs struct {
			Messages []MessageDefinition `json:"messages"`
		}
		if err := decodeJSON(jsonData, &defs); err != nil {
			return nil, err
		}
		return FromMessages(defs.Messages, d.config.chatOptions()...)
	}

	return ParseChatTemplate(string(jsonData), d.config.chatOptions()...)
}

func isDefinitionList(entries []map[string]json.RawMessage) bool {
	for _, e := range entries {
		if _, ok := e["role"]; !ok {
			return false
		}
	}
	return true
}

// fewShot accepts the serialized form (with example_prompt) and the
// hand-written FewShotChatConfig form.
func (d documentLoader) fewShot(data []byte, format DocumentFormat) (*FewShotChatTemplate, error) {
	if format == DocumentText {
		return nil, errors.Unsupported("few-shot templates must be in JSON, TOML or YAML format")
	}

	keys, err := documentKeys(data, format)
	if err != nil {
		return nil, err
	}
	if keys["example_prompt"] {
		jsonData, err := toJSON(data, format)
		if err != nil {
			return nil, err
		}
		return ParseFewShotChatTemplate(string(jsonData))
	}

	cfg, err := DecodeFewShotChatConfig(data, format)
	if err != nil {
		return nil, err
	}
	if cfg.ExampleSeparator == "" {
		cfg.ExampleSeparator = d.config.Separator
	}
	if cfg.Mode == "" {
		cfg.Mode = string(d.config.FewShotMode)
	}
	return cfg.Build()
}

// prompt picks the prompt kind from the document's top-level keys.
func (d documentLoader) prompt(data []byte, format DocumentFormat) (Prompt, error) {
	var keys map[string]bool
	if format != DocumentText {
		var err error
		if keys, err = documentKeys(data, format); err != nil {
			return nil, err
		}
	}

	var (
		p   Prompt
		err error
	)
	switch {
	case format == DocumentText, keys["template"] && !keys["messages"] && !keys["examples"]:
		p, err = asPrompt(d.template(data, format))
	case keys["example_prompt"], keys["examples"]:
		p, err = asPrompt(d.fewShot(data, format))
	case keys["messages"]:
		p, err = asPrompt(d.chat(data, format))
	default:
		err = errors.Malformed("document holds no template, messages or examples")
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// asPrompt keeps a failed load from producing a non-nil Prompt holding a
// nil pointer.
func asPrompt[T Prompt](p T, err error) (Prompt, error) {
	if err != nil {
		return nil, err
	}
	return p, nil
}

func documentKeys(data []byte, format DocumentFormat) (map[string]bool, error) {
	jsonData, err := toJSON(data, format)
	if err != nil {
		return nil, err
	}
	var doc map[string]json.RawMessage
	if err := decodeJSON(jsonData, &doc); err != nil {
		return nil, err
	}
	keys := make(map[string]bool, len(doc))
	for k := range doc {
		keys[k] = true
	}
	return keys, nil
}

// FSLoader loads prompts from an fs.FS. The document format follows the
// file extension: .json, .toml, .yaml/.yml, anything else is template text.
type FSLoader struct {
	documentLoader
	fsys fs.FS
}

// NewFSLoader creates a loader over fsys
func NewFSLoader(fsys fs.FS, config Config) *FSLoader {
	return &FSLoader{
		documentLoader: documentLoader{config: config},
		fsys:           fsys,
	}
}

// NewFileLoader creates a new file-based loader rooted at baseDir
func NewFileLoader(baseDir string) *FSLoader {
	return NewFileLoaderWithConfig(baseDir, Config{TemplateDir: baseDir})
}

// NewFileLoaderWithConfig creates a new file loader with configuration
func NewFileLoaderWithConfig(baseDir string, config Config) *FSLoader {
	config.TemplateDir = baseDir
	return NewFSLoader(os.DirFS(baseDir), config)
}

// NewEmbedLoader creates a loader over the prefix directory of an embedded
// filesystem
func NewEmbedLoader(efs embed.FS, prefix string) (*FSLoader, error) {
	if prefix == "" || prefix == "." {
		return NewFSLoader(efs, Config{}), nil
	}
	sub, err := fs.Sub(efs, prefix)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid embed prefix %s", prefix)
	}
	return NewFSLoader(sub, Config{}), nil
}

func (f *FSLoader) read(name string) ([]byte, DocumentFormat, error) {
	data, err := fs.ReadFile(f.fsys, name)
	if err != nil {
		return nil, 0, errors.Wrapf(err, "failed to read prompt file %s", name)
	}
	logger.Debug("Loaded prompt file %s (%d bytes)", name, len(data))
	return data, DetectDocumentFormat(name), nil
}

// Load loads a string template
func (f *FSLoader) Load(name string) (*template.Template, error) {
	data, format, err := f.read(name)
	if err != nil {
		return nil, err
	}
	t, err := f.template(data, format)
	return t, errors.WithMessagef(err, "%s", name)
}

// LoadChat loads a chat template
func (f *FSLoader) LoadChat(name string) (*ChatTemplate, error) {
	data, format, err := f.read(name)
	if err != nil {
		return nil, err
	}
	c, err := f.chat(data, format)
	return c, errors.WithMessagef(err, "%s", name)
}

// LoadFewShotChat loads a few-shot chat block
func (f *FSLoader) LoadFewShotChat(name string) (*FewShotChatTemplate, error) {
	data, format, err := f.read(name)
	if err != nil {
		return nil, err
	}
	block, err := f.fewShot(data, format)
	return block, errors.WithMessagef(err, "%s", name)
}

// LoadPrompt loads whatever kind of prompt the file holds
func (f *FSLoader) LoadPrompt(name string) (Prompt, error) {
	data, format, err := f.read(name)
	if err != nil {
		return nil, err
	}
	p, err := f.prompt(data, format)
	if err != nil {
		return nil, errors.WithMessagef(err, "%s", name)
	}
	return p, nil
}

// Names lists every loadable file, sorted. Hidden files and directories
// are skipped.
func (f *FSLoader) Names() ([]string, error) {
	var names []string
	err := fs.WalkDir(f.fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p != "." && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !d.IsDir() {
			names = append(names, p)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to walk prompt directory")
	}
	sort.Strings(names)
	return names, nil
}

// RegisterAll loads every file and registers it under its path without the
// extension, e.g. "support/greeting.yaml" becomes "support/greeting". Files
// load concurrently up to the configured concurrency; registration happens
// in name order. The first failing file aborts the whole load.
func (f *FSLoader) RegisterAll(reg Registry) ([]string, error) {
	names, err := f.Names()
	if err != nil {
		return nil, err
	}

	loaded := make([]Prompt, len(names))
	var g errgroup.Group
	if f.config.Concurrency > 0 {
		g.SetLimit(f.config.Concurrency)
	}
	for i, name := range names {
		g.Go(func() error {
			p, err := f.LoadPrompt(name)
			if err != nil {
				return err
			}
			loaded[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	registered := make([]string, 0, len(names))
	for i, name := range names {
		key := PromptName(name)
		if err := reg.Register(key, loaded[i]); err != nil {
			return registered, err
		}
		registered = append(registered, key)
	}
	logger.Info("Registered %d prompts from %s", len(registered), f.config.TemplateDir)
	return registered, nil
}

// PromptName strips the extension from a file path.
func PromptName(file string) string {
	return strings.TrimSuffix(file, path.Ext(file))
}

// LoadDir loads every prompt below dir into a new registry.
func LoadDir(dir string, config Config) (Registry, error) {
	reg := NewRegistry()
	if _, err := NewFileLoaderWithConfig(dir, config).RegisterAll(reg); err != nil {
		return nil, err
	}
	return reg, nil
}

// StringLoader loads prompts from in-memory documents
type StringLoader struct {
	documentLoader
	mu        sync.RWMutex
	documents map[string]stringDocument
	chats     map[string][]MessageDefinition
}

type stringDocument struct {
	data   []byte
	format DocumentFormat
}

// NewStringLoader creates a new string-based loader
func NewStringLoader() *StringLoader {
	return NewStringLoaderWithConfig(Config{})
}

// NewStringLoaderWithConfig creates a new string-based loader with
// configuration
func NewStringLoaderWithConfig(config Config) *StringLoader {
	return &StringLoader{
		documentLoader: documentLoader{config: config},
		documents:      make(map[string]stringDocument),
		chats:          make(map[string][]MessageDefinition),
	}
}

// AddTemplate adds template text
func (s *StringLoader) AddTemplate(name, text string) {
	s.AddDocument(name, []byte(text), DocumentText)
}

// AddDocument adds a serialized document in the given format
func (s *StringLoader) AddDocument(name string, data []byte, format DocumentFormat) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[name] = stringDocument{data: data, format: format}
}

// AddChatTemplate adds a chat template as message definitions
func (s *StringLoader) AddChatTemplate(name string, messages []MessageDefinition) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chats[name] = append([]MessageDefinition(nil), messages...)
}

func (s *StringLoader) document(name string) (stringDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, exists := s.documents[name]
	if !exists {
		return stringDocument{}, errors.Wrapf(ErrNotFound, "template %s", name)
	}
	return doc, nil
}

// Load loads a template by name
func (s *StringLoader) Load(name string) (*template.Template, error) {
	doc, err := s.document(name)
	if err != nil {
		return nil, err
	}
	return s.template(doc.data, doc.format)
}

// LoadChat loads a chat template by name. Definitions added with
// AddChatTemplate take precedence over documents.
func (s *StringLoader) LoadChat(name string) (*ChatTemplate, error) {
	s.mu.RLock()
	defs, exists := s.chats[name]
	s.mu.RUnlock()
	if exists {
		return FromMessages(defs, s.config.chatOptions()...)
	}

	doc, err := s.document(name)
	if err != nil {
		return nil, err
	}
	return s.chat(doc.data, doc.format)
}

// LoadFewShotChat loads a few-shot chat block by name
func (s *StringLoader) LoadFewShotChat(name string) (*FewShotChatTemplate, error) {
	doc, err := s.document(name)
	if err != nil {
		return nil, err
	}
	return s.fewShot(doc.data, doc.format)
}

// LoadPrompt loads whatever kind of prompt is stored under name
func (s *StringLoader) LoadPrompt(name string) (Prompt, error) {
	s.mu.RLock()
	_, isChat := s.chats[name]
	s.mu.RUnlock()
	if isChat {
		return asPrompt(s.LoadChat(name))
	}

	doc, err := s.document(name)
	if err != nil {
		return nil, err
	}
	return s.prompt(doc.data, doc.format)
}

var (
	_ Loader = (*FSLoader)(nil)
	_ Loader = (*StringLoader)(nil)
)
