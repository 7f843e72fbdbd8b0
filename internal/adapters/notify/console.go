package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/alejandrodnm/polyrank/internal/domain"
	"github.com/olekukonko/tablewriter"
)

// Console implementa ports.Notifier.
type Console struct {
	out      io.Writer
	table    bool
	validate bool
}

// NewConsole crea un notificador que escribe a stdout.
func NewConsole(table, validate bool) *Console {
	return &Console{out: os.Stdout, table: table, validate: validate}
}

// NewConsoleWriter crea un notificador para tests.
func NewConsoleWriter(w io.Writer, table, validate bool) *Console {
	return &Console{out: w, table: table, validate: validate}
}

// Notify imprime las oportunidades en el modo configurado.
func (c *Console) Notify(_ context.Context, opportunities []domain.Opportunity) error {
	if len(opportunities) == 0 {
		fmt.Fprintf(c.out, "[%s] no opportunities found\n", time.Now().Format("15:04:05"))
		return nil
	}

	if c.table {
		c.printFull(opportunities)
	} else {
		c.printCompact(opportunities)
	}

	if c.validate {
		c.printValidation(opportunities)
	}

	return nil
}

// NotifyConviction imprime las señales de conviction de los traders tracked.
func (c *Console) NotifyConviction(_ context.Context, signals []domain.ConvictionSignal) error {
	if len(signals) == 0 {
		return nil
	}

	fmt.Fprintf(c.out, "\n[%s] %d conviction signals from tracked traders\n",
		time.Now().Format("15:04:05"), len(signals))

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Market", "Dir", "Score", "Traders", "Trades")

	for i, sig := range signals {
		table.Append(
			fmt.Sprintf("%d", i+1),
			clusterLabel(sig.Cluster),
			sig.Breakdown.Direction.String(),
			fmt.Sprintf("%.1f", sig.Score()),
			fmt.Sprintf("%d", sig.Breakdown.AgreeingTraders),
			fmt.Sprintf("%d", len(sig.Cluster.Trades)),
		)
	}
	table.Render()

	return nil
}

// printCompact imprime lo esencial en 2-3 líneas.
func (c *Console) printCompact(opps []domain.Opportunity) {
	now := time.Now().Format("15:04:05")
	a, b, sweet := countByGrade(opps)

	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %d mkts → A:%d B:%d sweet:%d", now, len(opps), a, b, sweet)

	shown := 0
	for _, opp := range opps {
		if shown >= 4 {
			break
		}
		grade := opp.Grade()
		if grade != "A" && grade != "B" {
			break
		}

		name := compactName(opp.Market.Question, 25)
		flags := ""
		if opp.Breakdown.InSweetSpot {
			flags += "*"
		}
		if opp.Breakdown.CounterTrend {
			flags += "!"
		}
		fmt.Fprintf(&sb, " | [%s%s]%s %.1f p%.3f %.1fd",
			grade, flags, name, opp.Score(),
			opp.Snapshot.Probability, opp.Snapshot.DaysToExpiry)
		shown++
	}

	fmt.Fprintln(c.out, sb.String())
}

// printFull imprime la tabla completa de oportunidades.
func (c *Console) printFull(opps []domain.Opportunity) {
	now := time.Now().Format("15:04:05")
	a, b, sweet := countByGrade(opps)

	fmt.Fprintf(c.out, "\n[%s] %d opportunities — A:%d B:%d sweet:%d\n",
		now, len(opps), a, b, sweet)

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Market", "Dir", "Prob", "Days", "Vol24h", "APY", "Score", "Grade", "Flags")

	for i, opp := range opps {
		flags := "-"
		var marks []string
		if opp.Breakdown.InSweetSpot {
			marks = append(marks, "SWEET")
		}
		if opp.Breakdown.CounterTrend {
			marks = append(marks, "CTR")
		}
		if len(marks) > 0 {
			flags = strings.Join(marks, "+")
		}

		table.Append(
			fmt.Sprintf("%d", i+1),
			marketLabel(opp.Market),
			opp.Snapshot.Direction.String(),
			fmt.Sprintf("%.3f", opp.Snapshot.Probability),
			fmt.Sprintf("%.1f", opp.Snapshot.DaysToExpiry),
			fmt.Sprintf("$%.0f", opp.Snapshot.Volume),
			fmt.Sprintf("%.2f", opp.Snapshot.APY),
			fmt.Sprintf("%.1f", opp.Score()),
			opp.Grade(),
			flags,
		)
	}

	table.Render()

	fmt.Fprintln(c.out, "  Prob = precio de la posición YES | Days = días hasta resolución")
	fmt.Fprintln(c.out, "  SWEET = distancia+tiempo en la zona objetivo | CTR = momentum contra la posición")
	fmt.Fprintln(c.out, "  Grade: A(>=75) > B(>=60) > C(>=45) > D(>=30) > F")
}

// printValidation imprime el desglose por componente de los top 3.
func (c *Console) printValidation(opps []domain.Opportunity) {
	top := opps
	if len(top) > 3 {
		top = opps[:3]
	}

	fmt.Fprintln(c.out, "=== VALIDATION — component breakdown ===")

	for i, opp := range top {
		m := opp.Market
		slug := m.Slug
		if slug == "" {
			slug = m.ConditionID
		}

		fmt.Fprintf(c.out, "\n--- #%d: %s  [%s %.1f] [%s] ---\n",
			i+1, marketLabel(m), opp.Grade(), opp.Score(), opp.Snapshot.Direction.String())
		fmt.Fprintf(c.out, "  URL: https://polymarket.com/event/%s\n", slug)
		if !m.EndDate.IsZero() {
			fmt.Fprintf(c.out, "  End: %s (%.1fd left)\n",
				m.EndDate.Format("2006-01-02"), opp.Snapshot.DaysToExpiry)
		}

		snap := opp.Snapshot
		fmt.Fprintf(c.out, "\n  1. SNAPSHOT:\n")
		fmt.Fprintf(c.out, "     probability=%.4f  distance_to_extreme=%.4f\n",
			snap.Probability, snap.DistanceToExtreme())
		fmt.Fprintf(c.out, "     volume24h=$%.0f  spread=%.4f  apy=%.2f\n",
			snap.Volume, snap.Spread, snap.APY)
		fmt.Fprintf(c.out, "     momentum=%.3f  charm=%.2f  (1d %+.4f / 7d %+.4f)\n",
			snap.Momentum, snap.Charm, snap.OneDayChange, snap.OneWeekChange)

		fmt.Fprintf(c.out, "\n  2. COMPONENTS (score × weight):\n")
		for _, name := range domain.OpportunityComponents {
			comp := opp.Breakdown.Components[name]
			fmt.Fprintf(c.out, "     %-18s %6.2f × %.4f = %6.2f\n",
				name, comp.Score, comp.Weight, comp.Score*comp.Weight)
		}

		fmt.Fprintf(c.out, "\n  3. FLAGS:\n")
		fmt.Fprintf(c.out, "     in_sweet_spot=%v  counter_trend=%v  penalty=%.2f\n",
			opp.Breakdown.InSweetSpot, opp.Breakdown.CounterTrend, opp.Breakdown.Penalty)
		fmt.Fprintf(c.out, "     >>> TOTAL: %.2f (%s)\n", opp.Score(), opp.Grade())
	}
	fmt.Fprintln(c.out)
}

// --- helpers ---

func countByGrade(opps []domain.Opportunity) (a, b, sweet int) {
	for _, o := range opps {
		switch o.Grade() {
		case "A":
			a++
		case "B":
			b++
		}
		if o.Breakdown.InSweetSpot {
			sweet++
		}
	}
	return
}

func marketLabel(m domain.Market) string {
	return domain.TruncateQuestion(m.Question, m.ConditionID, 38)
}

func clusterLabel(c domain.TradeCluster) string {
	if c.Slug != "" {
		return truncate(c.Slug, 38)
	}
	return domain.TruncateQuestion("", c.MarketID, 38)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func compactName(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := s[:maxLen]
	if idx := strings.LastIndex(cut, " "); idx > maxLen/2 {
		cut = cut[:idx]
	}
	return cut + "…"
}
