package track

import (
	"fmt"
	"strings"

	"tw-stock-tracker/internal/domain/entity"
)

// RenderReport renders a report into its markdown document text.
//
// The document has two sections: a bare URL list meant for bulk copy/paste
// into NotebookLM, and a detailed per-security section in configuration
// order. Rendering is deterministic: the same Report value always produces
// byte-identical output, and the only timestamp in the document comes from
// the report's own GeneratedAt field.
func RenderReport(report *entity.Report) string {
	var b strings.Builder

	dateStr := report.GeneratedAt.Format("2006-01-02")

	fmt.Fprintf(&b, "# 台股追蹤 — %s\n", dateStr)
	b.WriteString("\n")
	b.WriteString("## 📋 Copy URLs for NotebookLM\n")
	b.WriteString("\n")
	b.WriteString("Copy the URLs below and paste them into NotebookLM as sources:\n")
	b.WriteString("\n")
	b.WriteString("```\n")
	for _, u := range collectURLs(report.Records) {
		b.WriteString(u)
		b.WriteString("\n")
	}
	b.WriteString("```\n")
	b.WriteString("\n")
	b.WriteString("---\n")
	b.WriteString("\n")
	b.WriteString("## 📊 詳細報告\n")
	b.WriteString("\n")

	for _, rec := range report.Records {
		fmt.Fprintf(&b, "### %s %s\n", rec.Security.Code, rec.Security.Name)
		fmt.Fprintf(&b, "- 📈 %s\n", formatRevenueSummary(rec.Revenue))

		if len(rec.News) == 0 {
			fmt.Fprintf(&b, "- 📰（%d天內無符合條件新聞）\n", report.LookbackDays)
			b.WriteString("\n")
			continue
		}

		for _, item := range rec.News {
			fmt.Fprintf(&b, "- 📰 [%s](%s)", item.Title, item.URL)
			if !item.PublishedAt.IsZero() {
				fmt.Fprintf(&b, " — %s", item.PublishedAt.Format("2006-01-02 15:04"))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	return strings.TrimRight(b.String(), "\n") + "\n"
}

// collectURLs flattens record news URLs in record order then per-record order,
// keeping the first occurrence of a URL that appears under multiple securities.
func collectURLs(records []entity.SecurityRecord) []string {
	seen := make(map[string]bool)
	var urls []string
	for _, rec := range records {
		for _, item := range rec.News {
			if seen[item.URL] {
				continue
			}
			seen[item.URL] = true
			urls = append(urls, item.URL)
		}
	}
	return urls
}

// formatRevenueSummary renders one revenue fact as a single report line.
// Field-level gaps in the disclosure row degrade to "（無數值）" placeholders
// rather than dropping the line.
func formatRevenueSummary(fact entity.RevenueFact) string {
	if fact.Missing {
		return fmt.Sprintf("月營收：找不到資料（%s）", fact.MissingReason)
	}

	var monthly []string
	if fact.MonthRevenue != "" {
		monthly = append(monthly, fmt.Sprintf("單月 %s", fact.MonthRevenue))
	}
	if fact.MonthOverMonthPct != "" {
		monthly = append(monthly, fmt.Sprintf("MoM %s%%", fact.MonthOverMonthPct))
	}
	if fact.YearOverYearPct != "" {
		monthly = append(monthly, fmt.Sprintf("YoY %s%%", fact.YearOverYearPct))
	}

	var cumulative []string
	if fact.CumulativeRevenue != "" {
		cumulative = append(cumulative, fmt.Sprintf("累計 %s", fact.CumulativeRevenue))
	}
	if fact.CumulativeYoYPct != "" {
		cumulative = append(cumulative, fmt.Sprintf("累計YoY %s%%", fact.CumulativeYoYPct))
	}

	s1 := "單月（無數值）"
	if len(monthly) > 0 {
		s1 = strings.Join(monthly, " / ")
	}
	s2 := "累計（無數值）"
	if len(cumulative) > 0 {
		s2 = strings.Join(cumulative, " / ")
	}

	return fmt.Sprintf("月營收：%s；%s", s1, s2)
}
