package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"news_ingest/internal/config"
	"news_ingest/internal/dedup"
	"news_ingest/internal/domain"
	"news_ingest/internal/language"
	"news_ingest/internal/logging"
	"news_ingest/internal/parser"
	"news_ingest/internal/service/mocks"
)

const twoItemFeed = `<?xml version="1.0"?>
<rss version="2.0"><channel><title>Wire</title>
<item><title>First story</title><link>https://wire.example.com/1</link><description>One.</description></item>
<item><title>Second story</title><link>https://wire.example.com/2</link><description>Two.</description></item>
</channel></rss>`

type DispatcherTestSuite struct {
	suite.Suite
	ctrl *gomock.Controller

	fetcher   *mocks.MockFetcher
	dedup     *mocks.MockDeduplicator
	states    *mocks.MockSourceStateStore
	txManager *mocks.MockTransactionManager
	publisher *mocks.MockPublisher
	stats     *mocks.MockStatsInvalidator

	cfg config.DispatchConfig
}

func (s *DispatcherTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())

	s.fetcher = mocks.NewMockFetcher(s.ctrl)
	s.dedup = mocks.NewMockDeduplicator(s.ctrl)
	s.states = mocks.NewMockSourceStateStore(s.ctrl)
	s.txManager = mocks.NewMockTransactionManager(s.ctrl)
	s.publisher = mocks.NewMockPublisher(s.ctrl)
	s.stats = mocks.NewMockStatsInvalidator(s.ctrl)

	s.cfg = config.DispatchConfig{
		MaxConcurrency: 3,
		GracePeriod:    50 * time.Millisecond,
	}
}

func (s *DispatcherTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestDispatcherTestSuite(t *testing.T) {
	suite.Run(t, new(DispatcherTestSuite))
}

func (s *DispatcherTestSuite) newDispatcher(pub Publisher) *Dispatcher {
	p := parser.New(parser.Config{SummaryMaxRunes: 1000}, language.Fixed("en"), logging.Discard())
	d := NewDispatcher(nil, s.fetcher, p, s.dedup, s.states, s.txManager, pub, logging.Discard(), s.cfg)
	d.SetStatsInvalidator(s.stats)
	return d
}

func src(id string) domain.Source {
	return domain.Source{ID: id, Country: "India", AgencyName: "Agency " + id, FeedURL: "https://" + id + ".example.com/rss"}
}

func feed(id, body string) *domain.RawFeedPayload {
	return &domain.RawFeedPayload{SourceID: id, Body: []byte(body), StatusCode: 200, Attempts: 1}
}

// expectStateUpdate passes the transaction through and captures the written state.
func (s *DispatcherTestSuite) expectStateUpdate(sourceID string, prior *domain.SourceState) *domain.SourceState {
	written := &domain.SourceState{}
	s.txManager.EXPECT().WithTransaction(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, fn func(context.Context) error) error {
			return fn(ctx)
		},
	)
	s.states.EXPECT().Get(gomock.Any(), sourceID).Return(prior, nil)
	s.states.EXPECT().Update(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, st *domain.SourceState) error {
			*written = *st
			return nil
		},
	)
	return written
}

func (s *DispatcherTestSuite) passThroughState() {
	s.txManager.EXPECT().WithTransaction(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, fn func(context.Context) error) error {
			return fn(ctx)
		},
	).AnyTimes()
	s.states.EXPECT().Get(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, id string) (*domain.SourceState, error) {
			return &domain.SourceState{SourceID: id}, nil
		},
	).AnyTimes()
	s.states.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
}

func (s *DispatcherTestSuite) TestRunCycle_AcceptsAndRejects() {
	ctx := context.Background()
	accepted := domain.Article{ID: 10, Title: "First story", URL: "https://wire.example.com/1"}

	s.fetcher.EXPECT().Fetch(gomock.Any(), src("wire")).Return(feed("wire", twoItemFeed), nil)
	gomock.InOrder(
		s.dedup.EXPECT().Submit(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, c domain.ArticleCandidate) (dedup.Decision, error) {
				s.Equal("First story", c.Title)
				s.Equal("wire", c.SourceID)
				s.Equal("Agency wire", c.Agency)
				return dedup.Decision{Accepted: true, Article: accepted}, nil
			},
		),
		s.dedup.EXPECT().Submit(gomock.Any(), gomock.Any()).Return(dedup.Decision{DuplicateOf: 3}, nil),
	)
	s.publisher.EXPECT().Publish(gomock.Any(), &accepted).Return(nil)
	s.stats.EXPECT().Invalidate(gomock.Any()).Return(nil)
	written := s.expectStateUpdate("wire", &domain.SourceState{SourceID: "wire", TotalAccepted: 5, ConsecutiveFailures: 2, LastError: "old"})

	stats, err := s.newDispatcher(s.publisher).RunCycle(ctx, []domain.Source{src("wire")})

	s.NoError(err)
	s.NotEmpty(stats.CycleID)
	s.Equal(1, stats.SourcesAttempted)
	s.Equal(0, stats.SourcesFailed)
	s.Equal(2, stats.CandidatesSeen)
	s.Equal(1, stats.ArticlesAccepted)
	s.Equal(1, stats.DuplicatesRejected)

	s.Equal(int64(6), written.TotalAccepted)
	s.Equal(0, written.ConsecutiveFailures)
	s.Empty(written.LastError)
	s.Require().NotNil(written.LastSuccessAt)
	s.Equal(written.LastAttemptAt, *written.LastSuccessAt)
}

func (s *DispatcherTestSuite) TestRunCycle_FetchFailureIsIsolated() {
	fetchErr := &domain.FetchError{Kind: domain.FetchHTTPStatus, StatusCode: 404, URL: "https://bad.example.com/rss"}

	s.fetcher.EXPECT().Fetch(gomock.Any(), src("bad")).Return(nil, fetchErr)
	s.fetcher.EXPECT().Fetch(gomock.Any(), src("good")).Return(feed("good", twoItemFeed), nil)
	s.dedup.EXPECT().Submit(gomock.Any(), gomock.Any()).Return(dedup.Decision{DuplicateOf: 1}, nil).Times(2)

	badState := &domain.SourceState{}
	s.txManager.EXPECT().WithTransaction(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, fn func(context.Context) error) error { return fn(ctx) },
	).Times(2)
	s.states.EXPECT().Get(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, id string) (*domain.SourceState, error) {
			return &domain.SourceState{SourceID: id}, nil
		},
	).Times(2)
	s.states.EXPECT().Update(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, st *domain.SourceState) error {
			if st.SourceID == "bad" {
				*badState = *st
			}
			return nil
		},
	).Times(2)

	stats, err := s.newDispatcher(s.publisher).RunCycle(context.Background(), []domain.Source{src("bad"), src("good")})

	s.NoError(err)
	s.Equal(2, stats.SourcesAttempted)
	s.Equal(1, stats.SourcesFailed)
	s.Equal(2, stats.CandidatesSeen)
	s.Equal(0, stats.ArticlesAccepted)
	s.Equal(2, stats.DuplicatesRejected)

	s.Require().Len(stats.Results, 2)
	s.Equal("bad", stats.Results[0].SourceID)
	s.ErrorIs(stats.Results[0].Err, fetchErr)

	s.Equal(1, badState.ConsecutiveFailures)
	s.Contains(badState.LastError, "404")
	s.Nil(badState.LastSuccessAt)
}

func (s *DispatcherTestSuite) TestRunCycle_ParseErrorIsIsolated() {
	s.fetcher.EXPECT().Fetch(gomock.Any(), gomock.Any()).Return(feed("blob", "\x00\x01 definitely not a feed"), nil)
	written := s.expectStateUpdate("blob", &domain.SourceState{SourceID: "blob"})

	stats, err := s.newDispatcher(s.publisher).RunCycle(context.Background(), []domain.Source{src("blob")})

	s.NoError(err)
	s.Equal(1, stats.SourcesAttempted)
	s.Equal(1, stats.SourcesFailed)
	s.Equal(0, stats.CandidatesSeen)

	var pe *domain.ParseError
	s.Require().ErrorAs(stats.Results[0].Err, &pe)
	s.Equal(domain.ParseInvalidFormat, pe.Kind)
	s.Equal(1, written.ConsecutiveFailures)
}

func (s *DispatcherTestSuite) TestRunCycle_StoreFailureFailsSource() {
	storeErr := &domain.StoreError{Kind: domain.StoreIOFailure, Op: "insert article", Err: errors.New("connection reset")}

	s.fetcher.EXPECT().Fetch(gomock.Any(), gomock.Any()).Return(feed("wire", twoItemFeed), nil)
	s.dedup.EXPECT().Submit(gomock.Any(), gomock.Any()).Return(dedup.Decision{}, storeErr).Times(1)
	written := s.expectStateUpdate("wire", &domain.SourceState{SourceID: "wire"})

	stats, err := s.newDispatcher(s.publisher).RunCycle(context.Background(), []domain.Source{src("wire")})

	s.NoError(err)
	s.Equal(1, stats.SourcesFailed)
	s.Equal(1, stats.CandidatesSeen)
	s.ErrorIs(stats.Results[0].Err, storeErr)
	s.Contains(written.LastError, "connection reset")
}

func (s *DispatcherTestSuite) TestRunCycle_PublishErrorsDoNotUndoAcceptance() {
	s.fetcher.EXPECT().Fetch(gomock.Any(), gomock.Any()).Return(feed("wire", twoItemFeed), nil)
	s.dedup.EXPECT().Submit(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, c domain.ArticleCandidate) (dedup.Decision, error) {
			return dedup.Decision{Accepted: true, Article: domain.Article{ID: 1, Title: c.Title}}, nil
		},
	).Times(2)
	s.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(errors.New("channel closed")).Times(2)
	s.stats.EXPECT().Invalidate(gomock.Any()).Return(errors.New("redis down"))
	s.passThroughState()

	stats, err := s.newDispatcher(s.publisher).RunCycle(context.Background(), []domain.Source{src("wire")})

	s.NoError(err)
	s.Equal(2, stats.ArticlesAccepted)
	s.Equal(0, stats.SourcesFailed)
	s.Equal(2, stats.Results[0].PublishErrors)
}

func (s *DispatcherTestSuite) TestRunCycle_NilPublisher() {
	s.fetcher.EXPECT().Fetch(gomock.Any(), gomock.Any()).Return(feed("wire", twoItemFeed), nil)
	s.dedup.EXPECT().Submit(gomock.Any(), gomock.Any()).Return(dedup.Decision{Accepted: true, Article: domain.Article{ID: 1}}, nil).Times(2)
	s.stats.EXPECT().Invalidate(gomock.Any()).Return(nil)
	s.passThroughState()

	stats, err := s.newDispatcher(nil).RunCycle(context.Background(), []domain.Source{src("wire")})

	s.NoError(err)
	s.Equal(2, stats.ArticlesAccepted)
}

func (s *DispatcherTestSuite) TestRunCycle_DuplicateSourcesFetchedOnce() {
	s.fetcher.EXPECT().Fetch(gomock.Any(), src("wire")).Return(feed("wire", twoItemFeed), nil).Times(1)
	s.dedup.EXPECT().Submit(gomock.Any(), gomock.Any()).Return(dedup.Decision{DuplicateOf: 1}, nil).Times(2)
	s.passThroughState()

	stats, err := s.newDispatcher(s.publisher).RunCycle(context.Background(), []domain.Source{src("wire"), src("wire"), src("wire")})

	s.NoError(err)
	s.Equal(1, stats.SourcesAttempted)
}

func (s *DispatcherTestSuite) TestRunCycle_ConcurrencyCap() {
	var inFlight, peak atomic.Int32

	s.fetcher.EXPECT().Fetch(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, source domain.Source) (*domain.RawFeedPayload, error) {
			n := inFlight.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(30 * time.Millisecond)
			inFlight.Add(-1)
			return nil, &domain.FetchError{Kind: domain.FetchTimeout, URL: source.FeedURL}
		},
	).Times(9)
	s.passThroughState()

	var sources []domain.Source
	for _, id := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i"} {
		sources = append(sources, src(id))
	}

	stats, err := s.newDispatcher(s.publisher).RunCycle(context.Background(), sources)

	s.NoError(err)
	s.Equal(9, stats.SourcesAttempted)
	s.Equal(9, stats.SourcesFailed)
	s.LessOrEqual(peak.Load(), int32(s.cfg.MaxConcurrency))
	s.Greater(peak.Load(), int32(1))
}

func (s *DispatcherTestSuite) TestRunCycle_CancelledBeforeStart() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stats, err := s.newDispatcher(s.publisher).RunCycle(ctx, []domain.Source{src("a"), src("b")})

	s.ErrorIs(err, context.Canceled)
	s.Equal(0, stats.SourcesAttempted)
	s.Equal(0, stats.ArticlesAccepted)
}

func (s *DispatcherTestSuite) TestRunCycle_CancelAbandonsAfterGrace() {
	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{})

	s.fetcher.EXPECT().Fetch(gomock.Any(), gomock.Any()).DoAndReturn(
		func(fetchCtx context.Context, _ domain.Source) (*domain.RawFeedPayload, error) {
			close(started)
			<-fetchCtx.Done()
			return nil, fetchCtx.Err()
		},
	)

	go func() {
		<-started
		cancel()
	}()

	begin := time.Now()
	stats, err := s.newDispatcher(s.publisher).RunCycle(ctx, []domain.Source{src("slow")})

	s.ErrorIs(err, context.Canceled)
	s.GreaterOrEqual(time.Since(begin), s.cfg.GracePeriod)
	s.Equal(0, stats.SourcesAttempted)
	s.Require().Len(stats.Results, 1)
	s.True(stats.Results[0].Abandoned)
}

func (s *DispatcherTestSuite) TestRunCycle_InFlightSourceFinishesWithinGrace() {
	s.cfg.GracePeriod = time.Second
	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{})

	s.fetcher.EXPECT().Fetch(gomock.Any(), gomock.Any()).DoAndReturn(
		func(fetchCtx context.Context, _ domain.Source) (*domain.RawFeedPayload, error) {
			close(started)
			<-ctx.Done()
			time.Sleep(20 * time.Millisecond)
			if fetchCtx.Err() != nil {
				return nil, fetchCtx.Err()
			}
			return feed("wire", twoItemFeed), nil
		},
	)
	s.dedup.EXPECT().Submit(gomock.Any(), gomock.Any()).Return(dedup.Decision{DuplicateOf: 1}, nil).Times(2)
	s.passThroughState()

	go func() {
		<-started
		cancel()
	}()

	stats, err := s.newDispatcher(s.publisher).RunCycle(ctx, []domain.Source{src("wire")})

	s.ErrorIs(err, context.Canceled)
	s.Equal(1, stats.SourcesAttempted)
	s.Equal(2, stats.DuplicatesRejected)
	s.False(stats.Results[0].Abandoned)
}

func (s *DispatcherTestSuite) TestCycle_UsesConfiguredSources() {
	s.cfg.CycleTimeout = time.Second
	p := parser.New(parser.Config{}, language.Fixed("en"), logging.Discard())
	d := NewDispatcher([]domain.Source{src("x")}, s.fetcher, p, s.dedup, s.states, s.txManager, nil, logging.Discard(), s.cfg)

	s.fetcher.EXPECT().Fetch(gomock.Any(), src("x")).Return(nil, &domain.FetchError{Kind: domain.FetchConnectionRefused, URL: "https://x.example.com/rss"})
	s.expectStateUpdate("x", &domain.SourceState{SourceID: "x"})

	stats, err := d.Cycle(context.Background())
	s.NoError(err)
	s.Equal(1, stats.SourcesAttempted)
	s.Equal(1, stats.SourcesFailed)
}
