package i18n

import (
	"errors"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
	"golang.org/x/text/number"

	"github.com/beduldjakurra/InjectSTO/internal/model"
)

// 默认语言为印尼语
var defaultTag = language.Indonesian

// Translator 按语言渲染消息键
type Translator struct {
	tag     language.Tag
	printer *message.Printer
}

var builder = newCatalog()

func newCatalog() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(defaultTag))
	for key, text := range indonesian {
		_ = b.SetString(language.Indonesian, key, text)
	}
	for key, text := range english {
		_ = b.SetString(language.English, key, text)
	}
	return b
}

var matcher = language.NewMatcher([]language.Tag{language.Indonesian, language.English})

// New 创建翻译器；locale 为空或无法识别时使用印尼语
func New(locale string) *Translator {
	tag := defaultTag
	if strings.TrimSpace(locale) != "" {
		if parsed, err := language.Parse(locale); err == nil {
			tag = parsed
		}
	}
	return newTranslator(tag)
}

// NewFromAcceptLanguage 按 Accept-Language 头选择语言
func NewFromAcceptLanguage(header string) *Translator {
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return newTranslator(defaultTag)
	}
	return newTranslator(tags...)
}

func newTranslator(tags ...language.Tag) *Translator {
	tag := language.Indonesian
	if _, idx, conf := matcher.Match(tags...); idx == 1 && conf != language.No {
		tag = language.English
	}
	return &Translator{
		tag:     tag,
		printer: message.NewPrinter(tag, message.Catalog(builder)),
	}
}

// Tag 当前语言
func (t *Translator) Tag() language.Tag {
	return t.tag
}

// Text 渲染消息键
func (t *Translator) Text(key string, args ...any) string {
	return t.printer.Sprintf(key, args...)
}

// Error 渲染错误；非 AppError 原样返回
func (t *Translator) Error(err error) string {
	if err == nil {
		return ""
	}
	var ae *model.AppError
	if errors.As(err, &ae) {
		return t.Text(ae.Key, ae.Args...)
	}
	return err.Error()
}

// Number 按语言格式化数字，最多保留 digits 位小数
func (t *Translator) Number(v float64, digits int) string {
	return t.printer.Sprint(number.Decimal(v, number.MaxFractionDigits(digits)))
}
