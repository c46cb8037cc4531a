package file

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/custodia-labs/concierge/internal/core/ports/driven"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// PromptStore loads LLM prompts from user-editable files on disk.
// Prompts are loaded from a configurable directory with fallback to embedded defaults.
//
// The store uses lazy initialisation: files are only created when first accessed,
// not in the constructor.
type PromptStore struct {
	mu        sync.RWMutex
	promptDir string
	cache     map[string]string
	initOnce  sync.Once
	initErr   error
}

// defaultPrompts contains embedded default prompts.
// These are used when user files don't exist and as the initial content for new files.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
var defaultPrompts = map[string]string{
	driven.PromptClassifyIntent: `[시스템 지침]
당신은 사용자의 질문을 분석하여 가장 적절한 카테고리로 분류하는 AI 분류기입니다.
당신의 임무는 아래에 정의된 카테고리 중 **하나만** 골라 답변하는 것입니다. 다른 설명은 절대 추가하지 마세요.

[카테고리 정의]
- GREETING: 간단한 인사말 (안녕, 하이 등)
- LOCATION: 위치, 주소, 지점, 찾아가는 길 관련 질문
- PRICE: 가격, 요금, 비용, 월세 관련 질문
- FACILITY: 시설, 회의실, 스튜디오, 헬스장 등 공간 관련 질문
- SERVICE: 제공하는 서비스, 혜택, 네트워킹, 지원 프로그램 관련 질문
- RESERVATION: 예약, 이용 시간, 결제 방법 관련 질문
- CONTACT: 연락처, 전화번호, 문의 방법 관련 질문
- COMPANY_INFO: 마이워크스페이스라는 회사 자체에 대한 질문
- OFF_TOPIC: 위 카테고리에 모두 해당하지 않는, 공유오피스와 관련 없는 모든 질문 (예: 날씨, 음식, 스포츠, 잡담 등)

[사용자 질문]
"{question}"

[분류 결과]
카테고리:`,

	driven.PromptGroundedAnswer: `[시스템 규칙]
당신은 마이워크스페이스의 친절하고 전문적인 AI 상담원입니다. 당신의 목표는 사람과 대화하듯 자연스럽게 답변하는 것입니다.

[제공된 문서 정보]
{context}

[사용자 질문]
{question}

[정보 처리 및 검증 절차]
1. [사용자 질문]의 핵심 의도를 파악합니다.
2. [제공된 문서 정보]가 질문의 핵심 의도에 직접적으로 답변할 수 있는 내용을 포함하는지 **반드시 검증합니다.** (예: 사용자가 '시설'을 물었다면, 문서에 '스튜디오', '회의실', '헬스장' 등 구체적인 시설 목록이 포함되어 있는지 확인)
3. **검증 결과, 문서가 질문과 직접적인 관련이 있다고 판단될 경우에만** 해당 정보를 바탕으로 친절하고 자연스러운 답변을 생성합니다.
4. **만약 문서가 질문과 관련이 없다면,** 절대 그 내용을 바탕으로 답변을 만들지 말고, 정확히 아래의 메시지만을 출력해야 합니다.
   > "죄송하지만 문의하신 내용에 대한 정확한 정보를 찾지 못했습니다. 자세한 안내를 위해 02-1234-5678로 연락 주시겠어요?"
5. '[문제 해결]:', '[추가 정보]:' 와 같이 대괄호([])를 사용하여 답변을 항목별로 나누거나 레이블을 붙이지 마세요.

[절대 금지 사항]
- 관련 없는 문서 내용을 짜깁기하여 답변하지 마세요.
- AI이거나 문서를 참조했다는 사실을 절대로 언급하지 마세요.
- '시설'과 관련된 질문에 '공간', '위치'에 대한 내용은 제공하지 마세요.
답변:`,

	driven.PromptNoContextFallback: `[시스템 규칙]
당신은 마이워크스페이스의 친절하고 전문적인 AI 상담원입니다.
아래 질문에 답할 수 있는 문서 정보를 찾지 못했습니다.

[사용자 질문]
{question}

[응답 규칙]
- 추측하거나 정보를 지어내지 마세요.
- AI이거나 문서를 참조했다는 사실을 언급하지 마세요.
- 정확히 아래의 메시지만을 출력하세요.
  "죄송하지만 문의하신 내용에 대한 정확한 정보를 찾지 못했습니다. 자세한 안내를 위해 02-1234-5678로 연락 주시겠어요?"
답변:`,
}

// DefaultPrompt returns the built-in template for name.
func DefaultPrompt(name string) (string, bool) {
	p, ok := defaultPrompts[name]
	return p, ok
}

// NewPromptStore creates a new file-based prompt store.
// If promptDir is empty, defaults to the prompts directory under DefaultConfigDir.
//
// The constructor does not perform any I/O. Directory creation and
// file writes happen lazily on first Load() call.
func NewPromptStore(promptDir string) (*PromptStore, error) {
	if promptDir == "" {
		dir, err := DefaultConfigDir()
		if err != nil {
			return nil, err
		}
		promptDir = filepath.Join(dir, promptsDirName)
	}

	return &PromptStore{
		promptDir: promptDir,
		cache:     make(map[string]string),
	}, nil
}

// Load returns the prompt template for the given name.
// On first call, initialises the prompt directory and creates default files.
// Returns cached value if available, otherwise loads from file.
// Falls back to embedded default if the file is missing or blank.
func (s *PromptStore) Load(name string) (string, error) {
	s.initOnce.Do(s.initialise)
	if s.initErr != nil {
		if prompt, ok := defaultPrompts[name]; ok {
			return prompt, nil
		}
		return "", fmt.Errorf("prompt store init failed: %w", s.initErr)
	}

	s.mu.RLock()
	if prompt, ok := s.cache[name]; ok {
		s.mu.RUnlock()
		return prompt, nil
	}
	s.mu.RUnlock()

	prompt, err := s.loadFromFile(name)
	if err != nil || prompt == "" {
		if defaultPrompt, ok := defaultPrompts[name]; ok {
			return defaultPrompt, nil
		}
		if err == nil {
			err = fmt.Errorf("file is empty")
		}
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	}

	// Double-check so a concurrent load wins consistently.
	s.mu.Lock()
	if cached, ok := s.cache[name]; ok {
		prompt = cached
	} else {
		s.cache[name] = prompt
	}
	s.mu.Unlock()

	return prompt, nil
}

// Reload clears the prompt cache, forcing fresh loads from disk.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Files returns the template file paths, sorted, creating the directory and
// default files first when they are missing.
func (s *PromptStore) Files() ([]string, error) {
	s.initOnce.Do(s.initialise)
	if s.initErr != nil {
		return nil, s.initErr
	}
	paths := make([]string, 0, len(defaultPrompts))
	for name := range defaultPrompts {
		paths = append(paths, filepath.Join(s.promptDir, name+".txt"))
	}
	slices.Sort(paths)
	return paths, nil
}

// Dir returns the prompt directory path.
func (s *PromptStore) Dir() string {
	return s.promptDir
}

// initialise creates the prompt directory and default files.
func (s *PromptStore) initialise() {
	if err := os.MkdirAll(s.promptDir, 0700); err != nil {
		s.initErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}

	for name, content := range defaultPrompts {
		path := filepath.Join(s.promptDir, name+".txt")
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := os.WriteFile(path, []byte(content+"\n"), 0600); err != nil {
				s.initErr = fmt.Errorf("create default prompt %q: %w", name, err)
				return
			}
		}
	}

	if err := s.createReadme(); err != nil {
		s.initErr = err
	}
}

func (s *PromptStore) loadFromFile(name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.promptDir, name+".txt"))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// createReadme writes a README file explaining the prompts directory.
func (s *PromptStore) createReadme() error {
	path := filepath.Join(s.promptDir, "README.md")
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return nil
	}

	content := `# Concierge Prompts

This directory contains the prompt templates used to answer questions.

## Files

- ` + "`classify_intent.txt`" + ` - Picks one intent label for a question
- ` + "`grounded_answer.txt`" + ` - Answers from the retrieved document context
- ` + "`no_context_fallback.txt`" + ` - Used when no document passed the similarity floor

## Customisation

Edit any file to change the wording. ` + "`concierge serve`" + ` reloads a file as
soon as it is saved; other commands read the files on every run. Delete a file
to restore its default on the next start.

## Placeholders

- ` + "`{question}`" + ` - The user's question (all templates)
- ` + "`{context}`" + ` - Retrieved passages joined by ` + "`---`" + ` (grounded_answer only)

Only the first occurrence of each placeholder is replaced. A template missing
a placeholder it needs is rejected and the answer becomes an apology.

The classifier must answer with one of GREETING, LOCATION, PRICE, FACILITY,
SERVICE, RESERVATION, CONTACT, COMPANY_INFO or OFF_TOPIC, optionally after
the ` + "`카테고리:`" + ` label.
`
	return os.WriteFile(path, []byte(content), 0600)
}
