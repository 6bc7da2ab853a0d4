package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nurpe/mplads-works/internal/model"
	"github.com/nurpe/mplads-works/internal/view"
)

type WorksGenerator interface {
	GenerateWorks(report model.WorksReport) ([]byte, error)
}

type MPReportGenerator interface {
	GenerateMPReport(report model.MPReport) ([]byte, error)
}

type StatesReportGenerator interface {
	GenerateStatesReport(report model.StatesReport) ([]byte, error)
}

type ReportService struct {
	works         *WorksService
	worksFormats  map[model.ReportFormat]WorksGenerator
	mpFormats     map[model.ReportFormat]MPReportGenerator
	statesFormats map[model.ReportFormat]StatesReportGenerator
	now           func() time.Time
}

type ReportResult struct {
	FileName    string
	ContentType string
	Content     []byte
}

func NewReportService(
	works *WorksService,
	worksFormats map[model.ReportFormat]WorksGenerator,
	mpFormats map[model.ReportFormat]MPReportGenerator,
	statesFormats map[model.ReportFormat]StatesReportGenerator,
) *ReportService {
	return &ReportService{
		works:         works,
		worksFormats:  worksFormats,
		mpFormats:     mpFormats,
		statesFormats: statesFormats,
		now:           time.Now,
	}
}

// ExportWorks renders the filtered works set, capped at the export row
// limit, in the requested format.
func (s *ReportService) ExportWorks(ctx context.Context, filter model.FilterSet, format model.ReportFormat) (*ReportResult, error) {
	generator, ok := s.worksFormats[format]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported export format %q", ErrInvalidFilter, format)
	}

	result, err := s.works.Collect(ctx, filter)
	if err != nil {
		return nil, err
	}

	status := filter.Status
	if status == "" {
		status = model.WorkStatusCompleted
	}
	report := model.WorksReport{
		Title:       worksTitle(status, filter),
		Kind:        result.Kind,
		Filter:      filter,
		GeneratedAt: s.now(),
		Summary:     result.Summary,
		Truncated:   result.Pagination.HasNext,
		Works:       result.Items,
	}

	content, err := generator.GenerateWorks(report)
	if err != nil {
		return nil, err
	}
	return &ReportResult{
		FileName:    s.buildFileName("works-"+string(status), scopeName(filter), format),
		ContentType: contentType(format),
		Content:     content,
	}, nil
}

// MPReport renders the detail report of one MP.
func (s *ReportService) MPReport(ctx context.Context, mpID string, format model.ReportFormat) (*ReportResult, error) {
	generator, ok := s.mpFormats[format]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported report format %q", ErrInvalidFilter, format)
	}

	mp, err := s.works.GetMP(ctx, mpID)
	if err != nil {
		return nil, err
	}

	var completed, recommended *model.PageResult
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		completed, err = s.works.Collect(gctx, model.FilterSet{MPID: mp.ID, Status: model.WorkStatusCompleted})
		return err
	})
	g.Go(func() error {
		var err error
		recommended, err = s.works.Collect(gctx, model.FilterSet{MPID: mp.ID, Status: model.WorkStatusRecommended})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	completed.Items, recommended.Items = Dedupe(completed.Items, recommended.Items)

	report := view.BuildMPReport(*mp, *completed, *recommended, s.now())
	content, err := generator.GenerateMPReport(report)
	if err != nil {
		return nil, err
	}
	return &ReportResult{
		FileName:    s.buildFileName("mp-report", mp.Name, format),
		ContentType: contentType(format),
		Content:     content,
	}, nil
}

// StatesReport renders the state comparison, optionally limited to one house.
func (s *ReportService) StatesReport(ctx context.Context, filter model.StatesFilter, format model.ReportFormat) (*ReportResult, error) {
	generator, ok := s.statesFormats[format]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported report format %q", ErrInvalidFilter, format)
	}

	overview, err := s.works.FetchStates(ctx, filter)
	if err != nil {
		return nil, err
	}

	content, err := generator.GenerateStatesReport(view.BuildStatesReport(*overview, s.now()))
	if err != nil {
		return nil, err
	}
	return &ReportResult{
		FileName:    s.buildFileName("states-report", overview.House, format),
		ContentType: contentType(format),
		Content:     content,
	}, nil
}

func (s *ReportService) buildFileName(prefix, scope string, format model.ReportFormat) string {
	target := sanitizeFileName(strings.ToLower(scope))
	if target == "" {
		target = "all"
	}
	return fmt.Sprintf("%s-%s-%s.%s", prefix, target, s.now().Format("20060102"), format)
}

func worksTitle(status model.WorkStatus, filter model.FilterSet) string {
	label := map[model.WorkStatus]string{
		model.WorkStatusCompleted:   "Completed works",
		model.WorkStatusRecommended: "Recommended works",
		model.WorkStatusInProgress:  "Works in progress",
	}[status]
	if scope := scopeName(filter); scope != "" {
		return label + " - " + scope
	}
	return label
}

func scopeName(filter model.FilterSet) string {
	parts := make([]string, 0, 3)
	for _, part := range []string{filter.Constituency, filter.State, filter.MPID} {
		if part = strings.TrimSpace(part); part != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, ", ")
}

func contentType(format model.ReportFormat) string {
	switch format {
	case model.ReportFormatCSV:
		return "text/csv; charset=utf-8"
	case model.ReportFormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case model.ReportFormatPDF:
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}

func sanitizeFileName(input string) string {
	result := make([]rune, 0, len(input))
	for _, r := range input {
		switch {
		case r >= 'a' && r <= 'z':
			result = append(result, r)
		case r >= 'A' && r <= 'Z':
			result = append(result, r)
		case r >= '0' && r <= '9':
			result = append(result, r)
		case r == '-', r == '_':
			result = append(result, r)
		default:
			result = append(result, '-')
		}
	}
	return strings.Trim(string(result), "-")
}
