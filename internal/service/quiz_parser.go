package service

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	questionHeader = regexp.MustCompile(`^Вопрос\s*\d*\s*:\s*(.*)$`)
	answerHeader   = regexp.MustCompile(`^Ответ\s*:\s*(.*)$`)
	metaHeader     = regexp.MustCompile(`^(Комментарий|Комментарии|Источник|Источники|Автор|Авторы|Зачет|Зачёт)\s*:`)
)

type parseMode int

const (
	modeSkip parseMode = iota
	modeQuestion
	modeAnswer
)

// ParseQuizQuestions парсит пакет вопросов: блоки разделены пустыми строками,
// "Вопрос N:" открывает вопрос, а ответ берется из первой непустой строки
// следующего блока "Ответ:". Остальные блоки пропускаются.
func ParseQuizQuestions(r io.Reader) ([]QuizQuestion, error) {
	var (
		questions []QuizQuestion
		question  []string
		pending   string
		mode      = modeSkip
	)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" {
			if mode == modeQuestion && len(question) > 0 {
				pending = strings.Join(question, "\n")
				question = nil
			}
			if mode != modeAnswer {
				mode = modeSkip
			}
			continue
		}

		if m := questionHeader.FindStringSubmatch(line); m != nil {
			question = question[:0]
			pending = ""
			if m[1] != "" {
				question = append(question, m[1])
			}
			mode = modeQuestion
			continue
		}

		if m := answerHeader.FindStringSubmatch(line); m != nil {
			if mode == modeQuestion && len(question) > 0 {
				pending = strings.Join(question, "\n")
				question = nil
			}
			mode = modeAnswer
			if m[1] == "" {
				continue
			}
			line = m[1]
		} else if metaHeader.MatchString(line) {
			if mode == modeQuestion && len(question) > 0 {
				pending = strings.Join(question, "\n")
				question = nil
			}
			mode = modeSkip
			continue
		}

		switch mode {
		case modeQuestion:
			question = append(question, line)
		case modeAnswer:
			if pending != "" {
				questions = append(questions, QuizQuestion{Question: pending, Answer: line})
			}
			pending = ""
			mode = modeSkip
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read questions: %w", err)
	}

	return questions, nil
}

// ReadQuizFile декодирует и парсит один файл с вопросами
func ReadQuizFile(filename, enc string) ([]QuizQuestion, error) {
	dec, err := decoderFor(enc)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filename, err)
	}
	defer file.Close()

	questions, err := ParseQuizQuestions(transform.NewReader(file, dec))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return questions, nil
}

// LoadQuizQuestions загружает вопросы из файла или из всех *.txt файлов
// каталога по алфавиту
func LoadQuizQuestions(path, enc string) ([]QuizQuestion, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.IsDir() {
		return ReadQuizFile(path, enc)
	}

	files, err := filepath.Glob(filepath.Join(path, "*.txt"))
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", path, err)
	}
	sort.Strings(files)

	var questions []QuizQuestion
	for _, f := range files {
		qs, err := ReadQuizFile(f, enc)
		if err != nil {
			return nil, err
		}
		questions = append(questions, qs...)
	}
	return questions, nil
}

func decoderFor(name string) (*encoding.Decoder, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "koi8-r", "koi8r":
		return charmap.KOI8R.NewDecoder(), nil
	case "windows-1251", "cp1251":
		return charmap.Windows1251.NewDecoder(), nil
	case "utf-8", "utf8":
		return unicode.UTF8BOM.NewDecoder(), nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q", name)
	}
}
