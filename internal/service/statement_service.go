package service

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"slices"
	"strconv"
	"strings"
	"time"

	"bankpro/internal/config"
	"bankpro/internal/model"
)

// DateLayout 对账单日期格式
const DateLayout = "2006-01-02"

// CSVHeader 导出文件表头
var CSVHeader = []string{"ID", "Date", "From", "To", "Amount", "Description", "Status"}

// StatementFilter 对账单查询条件，零值表示不限
// FromDate/ToDate 只取日期部分，两端都包含（ToDate 当天全天都算）
type StatementFilter struct {
	AccountNumber string
	FromDate      time.Time
	ToDate        time.Time
}

// StatementService 对账单查询与导出，只读
type StatementService struct {
	ledger *Ledger
	loc    *time.Location
}

func NewStatementService(ledger *Ledger, cfg *config.Config) *StatementService {
	loc, err := time.LoadLocation(cfg.Business.StatementTimezone)
	if err != nil {
		log.Printf("[StatementService] 时区 %q 无效，使用 UTC: %v", cfg.Business.StatementTimezone, err)
		loc = time.UTC
	}
	return &StatementService{ledger: ledger, loc: loc}
}

// Location 对账单按此时区划分日期
func (s *StatementService) Location() *time.Location {
	return s.loc
}

// ParseDate 解析 YYYY-MM-DD，空串返回零值
func (s *StatementService) ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	d, err := time.ParseInLocation(DateLayout, value, s.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: 日期格式应为 YYYY-MM-DD", ErrInvalidInput)
	}
	return d, nil
}

// List 按条件筛选流水
// 账号匹配转出或转入任一方；按时间倒序，时间相同按流水号倒序。
// 每次调用都重新计算。
func (s *StatementService) List(ctx context.Context, filter StatementFilter) ([]model.Transaction, error) {
	st, err := s.ledger.Read(ctx)
	if err != nil {
		return nil, err
	}

	var start, end time.Time
	if !filter.FromDate.IsZero() {
		start = s.startOfDay(filter.FromDate)
	}
	if !filter.ToDate.IsZero() {
		end = s.startOfDay(filter.ToDate).AddDate(0, 0, 1)
	}

	out := make([]model.Transaction, 0, len(st.Transactions))
	for _, tx := range st.Transactions {
		if filter.AccountNumber != "" && !tx.Involves(filter.AccountNumber) {
			continue
		}
		if !start.IsZero() && tx.Timestamp.Before(start) {
			continue
		}
		if !end.IsZero() && !tx.Timestamp.Before(end) {
			continue
		}
		out = append(out, tx)
	}

	slices.SortFunc(out, func(a, b model.Transaction) int {
		if c := b.Timestamp.Compare(a.Timestamp); c != 0 {
			return c
		}
		return compareInt64(b.ID, a.ID)
	})
	return out, nil
}

// ExportCSV 写出对账单
//
// 字符串字段统一加双引号，内部的双引号写成两个；金额不加引号；
// 日期取流水时间在对账单时区下的日历日期。
func (s *StatementService) ExportCSV(w io.Writer, txs []model.Transaction) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(strings.Join(CSVHeader, ",")); err != nil {
		return err
	}
	for _, tx := range txs {
		row := []string{
			strconv.FormatInt(tx.ID, 10),
			quote(tx.Timestamp.In(s.loc).Format(DateLayout)),
			quote(tx.FromAccount),
			quote(tx.ToAccount),
			strconv.FormatInt(tx.Amount, 10),
			quote(tx.Description),
			quote(tx.Status),
		}
		if _, err := bw.WriteString("\n" + strings.Join(row, ",")); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ExportFileName 例如 statements_SBIN0001001.csv，未指定账号时为 statements_all.csv
func ExportFileName(accountNumber string) string {
	if accountNumber == "" {
		accountNumber = "all"
	}
	return "statements_" + accountNumber + ".csv"
}

func (s *StatementService) startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, s.loc)
}

func quote(v string) string {
	return `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
