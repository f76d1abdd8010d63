// Пакет для экспорта плана спринта в PDF.
//
// Основные возможности:
//   - Заголовок со сводкой по спринту.
//   - Таблица мощности операторов и станков.
//   - Таблица задач спринта в порядке SprintOrder.
package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"codeberg.org/go-pdf/fpdf"
	"github.com/aisa-it/shopplan/internal/shopplan/dao"
	"github.com/aisa-it/shopplan/internal/shopplan/dto"
)

const dateLayout = "02.01.2006"

// SprintReport данные для выгрузки плана спринта.
type SprintReport struct {
	GeneratedAt time.Time
	Summary     *dto.SprintSummary
	Capacity    *dto.SprintCapacity
	Tasks       []dao.Task
}

type pdfWriter struct {
	pdf    *fpdf.Fpdf
	tr     func(string) string
	report *SprintReport

	defaultMargins Margins
}

type Margins struct {
	Left   float64
	Top    float64
	Right  float64
	Bottom float64
}

func (m *Margins) GetMargins(pdf fpdf.Pdf) {
	m.Left, m.Top, m.Right, m.Bottom = pdf.GetMargins()
}

// SprintToFPDF пишет план спринта в out.
func SprintToFPDF(report *SprintReport, out io.Writer) error {
	pdf := fpdf.New("L", "mm", "A4", "") // 297*210 mm

	w := pdfWriter{
		pdf:    pdf,
		tr:     pdf.UnicodeTranslatorFromDescriptor(""),
		report: report,
	}
	w.defaultMargins.GetMargins(w.pdf)

	pdf.SetTitle("Sprint plan", true)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(128, 128, 128)
		pdf.CellFormat(0, 6, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 20)
	pdf.SetTextColor(0, 0, 0)
	pdf.CellFormat(0, 10, "Sprint plan", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(71, 74, 82)
	pdf.CellFormat(0, 5, "Generated "+report.GeneratedAt.Format("02.01.2006 15:04"), "", 1, "L", false, 0, "")
	pdf.Ln(3)

	if report.Summary != nil {
		pdf.Bookmark("Summary", 0, -1)
		w.writeSummaryTable()
		pdf.Ln(4)
	}

	if report.Capacity != nil {
		pdf.Bookmark("Capacity", 0, -1)
		w.writeCapacityTable()
		pdf.Ln(4)
	}

	pdf.Bookmark("Tasks", 0, -1)
	w.writeTasksTable()

	return pdf.Output(out)
}

func (w *pdfWriter) writeSummaryTable() {
	s := w.report.Summary
	table := [][][]string{
		{
			{"Tasks:", fmt.Sprint(s.TotalTasks)},
			{"Estimated hours:", fmt.Sprint(s.TotalEstimatedHours)},
			{"Overdue:", fmt.Sprint(s.OverdueTasks)},
		},
		{
			{"Not started:", fmt.Sprint(s.NotStartedTasks)},
			{"In progress:", fmt.Sprint(s.InProgressTasks)},
			{"On hold:", fmt.Sprint(s.OnHoldTasks)},
			{"Finished:", fmt.Sprint(s.FinishedTasks)},
		},
		{
			{"High priority:", fmt.Sprint(s.HighPriorityTasks)},
			{"Critical priority:", fmt.Sprint(s.CriticalPriorityTasks)},
		},
	}

	w.pdf.SetFont("Helvetica", "", 9)
	w.pdf.SetDrawColor(71, 74, 82)

	y := w.pdf.GetY()
	finalY := y
	for i, col := range table {
		w.pdf.SetXY(w.pdf.GetX(), y)

		var keyWidth, valWidth float64
		for _, cell := range col {
			keyWidth = max(keyWidth, w.pdf.GetStringWidth(cell[0])+3)
			valWidth = max(valWidth, w.pdf.GetStringWidth(cell[1])+3)
		}

		x := w.pdf.GetX()
		colX := x
		for _, cell := range col {
			w.pdf.CellFormat(keyWidth, 5, cell[0], "", 0, "L", false, 0, "")

			border := ""
			if i != len(table)-1 {
				border = "R"
			}
			w.pdf.CellFormat(valWidth, 5, cell[1], border, 0, "L", false, 0, "")

			x = max(x, w.pdf.GetX())
			w.pdf.Ln(-1)
			w.pdf.SetX(colX)
		}
		w.pdf.SetX(x + 4)
		finalY = max(finalY, w.pdf.GetY())
	}
	w.pdf.SetXY(w.defaultMargins.Left, finalY)
}

func (w *pdfWriter) writeCapacityTable() {
	c := w.report.Capacity

	w.writeHeader([]string{"Resource", "Status", "Available, h", "Assigned, h", "Remaining, h"}, []float64{80, 40, 30, 30, 30})
	w.pdf.SetFont("Helvetica", "", 9)
	for _, op := range c.Operators {
		w.writeRow([]string{op.Name, op.AvailabilityStatus, fmt.Sprint(op.AvailableHours), fmt.Sprint(op.AssignedHours), fmt.Sprint(op.RemainingHours)},
			[]float64{80, 40, 30, 30, 30})
	}
	for _, m := range c.Machines {
		w.writeRow([]string{m.Name, fmt.Sprintf("%d h/day", m.CapacityPerDay), fmt.Sprint(m.AvailableHours), fmt.Sprint(m.AssignedHours), fmt.Sprint(m.RemainingHours)},
			[]float64{80, 40, 30, 30, 30})
	}

	w.pdf.SetFont("Helvetica", "B", 9)
	w.pdf.CellFormat(0, 6, fmt.Sprintf("Operators: %d/%d h (%.0f%%)   Machines: %d/%d h (%.0f%%)",
		c.RequiredOperatorHours, c.TotalOperatorHours, c.OperatorLoadPercent,
		c.RequiredMachineHours, c.TotalMachineHours, c.MachineLoadPercent), "", 1, "L", false, 0, "")
}

func (w *pdfWriter) writeTasksTable() {
	widths := []float64{12, 80, 30, 25, 20, 50, 25, 25}
	w.writeHeader([]string{"#", "Task", "Status", "Priority", "Est, h", "Operators", "Start", "End"}, widths)

	w.pdf.SetFont("Helvetica", "", 9)
	if len(w.report.Tasks) == 0 {
		w.pdf.CellFormat(0, 6, "Sprint is empty", "1", 1, "C", false, 0, "")
		return
	}
	for i := range w.report.Tasks {
		t := &w.report.Tasks[i]
		names := make([]string, 0, len(t.Operators))
		for j := range t.Operators {
			names = append(names, t.Operators[j].FullName())
		}
		w.writeRow([]string{
			fmt.Sprint(t.SprintOrder),
			t.Name,
			t.StatusName(),
			t.PriorityName(),
			fmt.Sprint(t.EstimatedTime),
			strings.Join(names, ", "),
			formatDate(t.PlannedStartDate),
			formatDate(t.PlannedEndDate),
		}, widths)
	}
}

func (w *pdfWriter) writeHeader(cols []string, widths []float64) {
	w.pdf.SetFont("Helvetica", "B", 9)
	w.pdf.SetFillColor(230, 232, 236)
	for i, col := range cols {
		w.pdf.CellFormat(widths[i], 7, col, "1", 0, "L", true, 0, "")
	}
	w.pdf.Ln(-1)
}

func (w *pdfWriter) writeRow(cols []string, widths []float64) {
	for i, col := range cols {
		w.pdf.CellFormat(widths[i], 6, w.fit(w.tr(col), widths[i]-2), "1", 0, "L", false, 0, "")
	}
	w.pdf.Ln(-1)
}

// fit обрезает текст под ширину ячейки. Текст уже в однобайтовой кодировке шрифта.
func (w *pdfWriter) fit(text string, width float64) string {
	if w.pdf.GetStringWidth(text) <= width {
		return text
	}
	for len(text) > 0 && w.pdf.GetStringWidth(text+"...") > width {
		text = text[:len(text)-1]
	}
	return text + "..."
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(dateLayout)
}
