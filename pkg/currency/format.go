package currency

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Symbol 演示环境只有一种货币
const Symbol = "₹"

// Formatter 按地区习惯格式化金额（en-IN 使用 1,00,000 式分组）
type Formatter struct {
	printer *message.Printer
}

// NewFormatter locale 无法解析时退回 en-IN
func NewFormatter(locale string) *Formatter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.MustParse("en-IN")
	}
	return &Formatter{printer: message.NewPrinter(tag)}
}

// Format 例如 50000 -> ₹50,000
func (f *Formatter) Format(amount int64) string {
	return Symbol + f.printer.Sprintf("%d", amount)
}
