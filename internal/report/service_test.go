package report

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"dka-report/internal/analytics"
	"dka-report/internal/chaos"
	"dka-report/internal/event"
	"dka-report/internal/logging"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type mockAggregator struct {
	mock.Mock
}

func (m *mockAggregator) AggregateEvents(ctx context.Context, q analytics.Query) (map[string]int, error) {
	args := m.Called(ctx, q)
	counts, _ := args.Get(0).(map[string]int)
	return counts, args.Error(1)
}

type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) FetchAll(ctx context.Context, query, sort string) ([]chaos.Object, error) {
	args := m.Called(ctx, query, sort)
	objects, _ := args.Get(0).([]chaos.Object)
	return objects, args.Error(1)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishReportGenerated(ctx context.Context, msg event.ReportGenerated) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

type ServiceSuite struct {
	suite.Suite

	events    *mockAggregator
	objects   *mockFetcher
	publisher *mockPublisher
	logBuf    *bytes.Buffer

	params Params
	svc    *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.events = &mockAggregator{}
	s.objects = &mockFetcher{}
	s.publisher = &mockPublisher{}
	s.logBuf = &bytes.Buffer{}

	s.params = Params{
		RunID:     "run-1",
		From:      "2015-01-01T12:00:00Z",
		To:        "2015-12-30T12:00:00Z",
		Output:    filepath.Join(s.T().TempDir(), "report.csv"),
		Query:     "q",
		Sort:      "s",
		Plays:     analytics.Query{Category: "JW Player Video", Action: "Play"},
		Completes: analytics.Query{Category: "JW Player Video", Action: "Complete"},
	}
	s.svc = s.newService(VariantUsage)
}

func (s *ServiceSuite) newService(v Variant) *Service {
	logger := logging.NewTestLogger(s.logBuf)
	return NewService(s.events, s.objects, NewBuilder(testSettings, v, logger), s.publisher, logger)
}

func (s *ServiceSuite) readOutput() []string {
	data, err := os.ReadFile(s.params.Output)
	s.Require().NoError(err)
	return strings.Split(strings.TrimSpace(string(data)), "\r\n")
}

// TestRun_WritesReportAndAnnounces runs the full pipeline in fetch order
func (s *ServiceSuite) TestRun_WritesReportAndAnnounces() {
	s.events.On("AggregateEvents", mock.Anything, s.params.Plays).Return(map[string]int{"/dr/b/": 4}, nil).Once()
	s.events.On("AggregateEvents", mock.Anything, s.params.Completes).Return(map[string]int{}, nil).Once()
	s.objects.On("FetchAll", mock.Anything, "q", "s").Return([]chaos.Object{
		{GUID: "1", Metadatas: []chaos.Metadata{primary("A", "3600000")}},
		{GUID: "2"},
		{GUID: "3", Metadatas: []chaos.Metadata{primary("B", "7200000"), crowd("b")}},
	}, nil).Once()
	s.publisher.On("PublishReportGenerated", mock.Anything, mock.MatchedBy(func(msg event.ReportGenerated) bool {
		return msg.RunID == "run-1" && msg.Written == 2 && msg.Skipped == 1 && msg.Variant == "usage"
	})).Return(nil).Once()

	stats, err := s.svc.Run(context.Background(), s.params)

	s.Require().NoError(err)
	s.Equal(2, stats.Written)
	s.Equal(4, stats.Plays)

	lines := s.readOutput()
	s.Require().Len(lines, 3)
	s.True(strings.HasPrefix(lines[1], "A,"))
	s.True(strings.HasPrefix(lines[2], "B,ext-B,P-B,2.00,4,8.00,0,0.00,"))

	s.events.AssertExpectations(s.T())
	s.objects.AssertExpectations(s.T())
	s.publisher.AssertExpectations(s.T())
	s.Contains(s.logBuf.String(), "report written")
}

// TestRun_CatalogSkipsAnalytics never queries the analytics API
func (s *ServiceSuite) TestRun_CatalogSkipsAnalytics() {
	s.svc = s.newService(VariantCatalog)
	s.objects.On("FetchAll", mock.Anything, "q", "s").Return([]chaos.Object{
		{GUID: "1", Metadatas: []chaos.Metadata{primary("A", "0")}},
	}, nil).Once()
	s.publisher.On("PublishReportGenerated", mock.Anything, mock.Anything).Return(nil).Once()

	_, err := s.svc.Run(context.Background(), s.params)

	s.Require().NoError(err)
	s.events.AssertNotCalled(s.T(), "AggregateEvents", mock.Anything, mock.Anything)
	s.Equal(strings.Join(VariantCatalog.Header(), ","), s.readOutput()[0])
}

// TestRun_AnalyticsFailureLeavesNoFile aborts before anything is fetched
func (s *ServiceSuite) TestRun_AnalyticsFailureLeavesNoFile() {
	s.events.On("AggregateEvents", mock.Anything, s.params.Plays).Return(nil, analytics.ErrTransport).Once()

	_, err := s.svc.Run(context.Background(), s.params)

	s.Require().ErrorIs(err, analytics.ErrTransport)
	s.objects.AssertNotCalled(s.T(), "FetchAll", mock.Anything, mock.Anything, mock.Anything)
	s.assertNoOutput()
}

// TestRun_FetchFailureLeavesNoFile surfaces the service reported error
func (s *ServiceSuite) TestRun_FetchFailureLeavesNoFile() {
	s.events.On("AggregateEvents", mock.Anything, mock.Anything).Return(map[string]int{}, nil).Twice()
	s.objects.On("FetchAll", mock.Anything, "q", "s").Return(nil, &chaos.ServiceError{Message: "bad query"}).Once()

	_, err := s.svc.Run(context.Background(), s.params)

	s.Require().ErrorIs(err, chaos.ErrServiceReported)
	s.Contains(err.Error(), "bad query")
	s.publisher.AssertNotCalled(s.T(), "PublishReportGenerated", mock.Anything, mock.Anything)
	s.assertNoOutput()
}

// TestRun_PublishFailureKeepsReport only logs a failed announcement
func (s *ServiceSuite) TestRun_PublishFailureKeepsReport() {
	s.svc = s.newService(VariantCatalog)
	s.objects.On("FetchAll", mock.Anything, "q", "s").Return([]chaos.Object{}, nil).Once()
	s.publisher.On("PublishReportGenerated", mock.Anything, mock.Anything).Return(errors.New("broker down")).Once()

	stats, err := s.svc.Run(context.Background(), s.params)

	s.Require().NoError(err)
	s.Equal(0, stats.Written)
	s.Len(s.readOutput(), 1)
	s.Contains(s.logBuf.String(), "failed publishing report event")
}

// TestRun_NilPublisher runs without a message bus
func (s *ServiceSuite) TestRun_NilPublisher() {
	logger := logging.NewTestLogger(s.logBuf)
	s.svc = NewService(s.events, s.objects, NewBuilder(testSettings, VariantCatalog, logger), nil, logger)
	s.objects.On("FetchAll", mock.Anything, "q", "s").Return([]chaos.Object{}, nil).Once()

	_, err := s.svc.Run(context.Background(), s.params)

	s.Require().NoError(err)
	s.Len(s.readOutput(), 1)
}

func (s *ServiceSuite) assertNoOutput() {
	entries, err := os.ReadDir(filepath.Dir(s.params.Output))
	s.Require().NoError(err)
	s.Empty(entries)
}
