package campaign

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"assistance-backend/internal/adapter/repository/gormrepo"
	"assistance-backend/internal/domain/assistance"
	"assistance-backend/internal/domain/audit"
	domain "assistance-backend/internal/domain/campaign"
	"assistance-backend/internal/domain/catalog"
	"assistance-backend/internal/domain/uow"
	"assistance-backend/internal/infrastructure/metrics"
	"assistance-backend/internal/testutil"
	"assistance-backend/internal/testutil/auditmock"
	audittrail "assistance-backend/internal/usecase/audit"
	"assistance-backend/internal/usecase/retry"
	"assistance-backend/pkg/clock"
	"assistance-backend/pkg/domainerrors"
	"assistance-backend/pkg/id"
)

const actor = "0123456789abcdef0123456789abcdef"

func day(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

type AllocatorSuite struct {
	suite.Suite
	db      *gorm.DB
	clock   *clock.Fixed
	metrics *metrics.Metrics
	trail   *audittrail.Trail
	alloc   *Allocator
	ctx     context.Context
}

func TestAllocatorSuite(t *testing.T) {
	suite.Run(t, new(AllocatorSuite))
}

func (s *AllocatorSuite) SetupTest() {
	s.ctx = context.Background()
	s.db = testutil.OpenSQLite(s.T(), gormrepo.Models()...)
	s.clock = clock.NewFixed(time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC))
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.trail = audittrail.NewTrail(gormrepo.NewAuditRepository(s.db), s.clock, nil)
	s.alloc = NewAllocator(
		gormrepo.NewCampaignRepository(s.db),
		gormrepo.NewAssistanceRepository(s.db),
		gormrepo.NewGormUoW(s.db),
		catalog.Default(),
		s.trail,
		WithClock(s.clock),
		WithMetrics(s.metrics),
		WithRetryPolicy(retry.Policy{MaxRetries: 3, Interval: time.Microsecond}),
	)
}

func (s *AllocatorSuite) create(name string, start, end time.Time, budget int64) (*CampaignDTO, error) {
	return s.alloc.CreateCampaign(s.ctx, CreateCampaignInput{
		Name:           name,
		AssistanceType: catalog.TypeEyewear,
		StartDate:      start,
		EndDate:        end,
		Budget:         decimal.NewFromInt(budget),
	}, actor)
}

func (s *AllocatorSuite) mustCreate(name string, start, end time.Time, budget int64) *CampaignDTO {
	c, err := s.create(name, start, end, budget)
	s.Require().NoError(err)
	return c
}

func (s *AllocatorSuite) TestCreateCampaign_OverlapExample() {
	a := s.mustCreate("A", day(2024, 1, 1), day(2024, 3, 1), 1000)
	s.Equal("2024-01-01", a.StartDate)

	_, err := s.create("B", day(2024, 2, 1), day(2024, 4, 1), 1000)
	s.ErrorIs(err, domain.ErrScheduleConflict)
	s.True(domainerrors.HasCode(err, domainerrors.CodeConflict))

	_, err = s.create("C", day(2024, 3, 2), day(2024, 4, 1), 1000)
	s.NoError(err)

	// another type is free to use the same window
	_, err = s.alloc.CreateCampaign(s.ctx, CreateCampaignInput{
		Name: "T", AssistanceType: catalog.TypeTransport,
		StartDate: day(2024, 2, 1), EndDate: day(2024, 4, 1), Budget: decimal.NewFromInt(10),
	}, actor)
	s.NoError(err)
}

func (s *AllocatorSuite) TestCreateCampaign_Validation() {
	_, err := s.create("bad window", day(2024, 3, 1), day(2024, 3, 1), 10)
	s.ErrorIs(err, domain.ErrInvalidWindow)

	_, err = s.create("negative", day(2024, 3, 1), day(2024, 3, 5), -1)
	s.ErrorIs(err, domain.ErrInvalidBudget)

	_, err = s.create("", day(2024, 3, 1), day(2024, 3, 5), 1)
	s.ErrorIs(err, ErrInvalidInput)

	_, err = s.alloc.CreateCampaign(s.ctx, CreateCampaignInput{
		Name: "x", AssistanceType: "spaceship", StartDate: day(2024, 1, 1), EndDate: day(2024, 1, 2),
	}, actor)
	s.ErrorIs(err, assistance.ErrUnknownType)
}

func (s *AllocatorSuite) TestCreateCampaign_CancelledOrDeletedFreeTheWindow() {
	a := s.mustCreate("A", day(2024, 1, 1), day(2024, 3, 1), 1000)
	_, err := s.alloc.ChangeStatus(s.ctx, a.CampaignID, domain.StatusCancelled, actor)
	s.Require().NoError(err)
	b := s.mustCreate("B", day(2024, 2, 1), day(2024, 4, 1), 1000)

	s.Require().NoError(s.alloc.Tombstone(s.ctx, b.CampaignID, actor))
	s.mustCreate("C", day(2024, 2, 1), day(2024, 4, 1), 1000)

	_, err = s.alloc.GetCampaign(s.ctx, b.CampaignID)
	s.ErrorIs(err, domain.ErrNotFound)
	s.ErrorIs(s.alloc.Tombstone(s.ctx, b.CampaignID, actor), domain.ErrInactive)
}

func (s *AllocatorSuite) TestCreateCampaign_WritesAudit() {
	c := s.mustCreate("A", day(2024, 1, 1), day(2024, 3, 1), 1000)
	events, err := s.trail.List(s.ctx, c.CampaignID)
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal(string(audit.EventCreated), events[0].EventType)
	s.Equal(string(audit.SubjectCampaign), events[0].SubjectType)
}

func (s *AllocatorSuite) TestReserveRelease() {
	c := s.mustCreate("A", day(2024, 1, 1), day(2024, 3, 1), 1000)

	got, err := s.alloc.ReserveBudget(s.ctx, c.CampaignID, decimal.NewFromInt(700), actor)
	s.Require().NoError(err)
	s.True(got.Remaining.Equal(decimal.NewFromInt(300)))

	_, err = s.alloc.ReserveBudget(s.ctx, c.CampaignID, decimal.NewFromInt(301), actor)
	s.ErrorIs(err, domain.ErrBudgetExceeded)

	_, err = s.alloc.ReserveBudget(s.ctx, c.CampaignID, decimal.Zero, actor)
	s.ErrorIs(err, domain.ErrInvalidAmount)

	got, err = s.alloc.ReleaseBudget(s.ctx, c.CampaignID, decimal.NewFromInt(5000), actor)
	s.Require().NoError(err)
	s.True(got.BudgetConsumed.IsZero())

	remaining, err := s.alloc.RemainingBudget(s.ctx, c.CampaignID)
	s.Require().NoError(err)
	s.True(remaining.Equal(decimal.NewFromInt(1000)))

	_, err = s.alloc.ReserveBudget(s.ctx, "missing", decimal.NewFromInt(1), actor)
	s.ErrorIs(err, domain.ErrNotFound)

	events, _ := s.trail.List(s.ctx, c.CampaignID)
	s.Len(events, 3, "created + reserve + release; failed reservations write nothing")
	s.Equal(1.0, promtest.ToFloat64(s.metrics.BudgetReservations.WithLabelValues("exceeded")))
}

func (s *AllocatorSuite) TestReserveBudget_ConcurrentNeverOverspends() {
	c := s.mustCreate("A", day(2024, 1, 1), day(2024, 3, 1), 1000)

	res := testutil.RunConcurrent(50, func(int) error {
		_, err := s.alloc.ReserveBudget(s.ctx, c.CampaignID, decimal.NewFromInt(30), actor)
		return err
	})
	s.Equal(int32(33), res.Successes)
	s.Equal(int32(17), res.Conflicts)
	s.Zero(res.Errors)

	got, err := s.alloc.GetCampaign(s.ctx, c.CampaignID)
	s.Require().NoError(err)
	s.True(got.BudgetConsumed.Equal(decimal.NewFromInt(990)))
	s.False(got.BudgetConsumed.GreaterThan(got.Budget))
}

func (s *AllocatorSuite) TestReserveBudget_InactiveCampaign() {
	c := s.mustCreate("A", day(2024, 1, 1), day(2024, 3, 1), 1000)
	_, err := s.alloc.ChangeStatus(s.ctx, c.CampaignID, domain.StatusCancelled, actor)
	s.Require().NoError(err)
	_, err = s.alloc.ReserveBudget(s.ctx, c.CampaignID, decimal.NewFromInt(1), actor)
	s.ErrorIs(err, domain.ErrInactive)
}

func (s *AllocatorSuite) TestChangeStatus() {
	c := s.mustCreate("A", day(2024, 1, 1), day(2024, 3, 1), 1000)
	got, err := s.alloc.ChangeStatus(s.ctx, c.CampaignID, domain.StatusInProgress, actor)
	s.Require().NoError(err)
	s.Equal("in_progress", got.Status)

	_, err = s.alloc.ChangeStatus(s.ctx, c.CampaignID, domain.StatusCompleted, actor)
	s.Require().NoError(err)
	_, err = s.alloc.ChangeStatus(s.ctx, c.CampaignID, domain.StatusActive, actor)
	s.ErrorIs(err, domain.ErrInvalidTransition)

	events, _ := s.trail.List(s.ctx, c.CampaignID)
	s.Len(events, 3)
	s.Equal(string(audit.EventStatusChanged), events[2].EventType)
}

func (s *AllocatorSuite) TestCanAcceptMoreParticipants() {
	unlimited := s.mustCreate("A", day(2024, 1, 1), day(2024, 3, 1), 1000)
	ok, err := s.alloc.CanAcceptMoreParticipants(s.ctx, unlimited.CampaignID)
	s.Require().NoError(err)
	s.True(ok)

	capped, err := s.alloc.CreateCampaign(s.ctx, CreateCampaignInput{
		Name: "capped", AssistanceType: catalog.TypeTransport, StartDate: day(2024, 1, 1), EndDate: day(2024, 2, 1),
		Budget: decimal.NewFromInt(100), PlannedParticipants: 1,
	}, actor)
	s.Require().NoError(err)

	ok, _ = s.alloc.CanAcceptMoreParticipants(s.ctx, capped.CampaignID)
	s.True(ok)

	rec := &assistance.Record{
		AssistanceID: id.NewID32(), CaseNumber: "20240001", BeneficiaryID: id.NewID32(),
		AssistanceType: catalog.TypeTransport, CampaignID: &capped.CampaignID, AssistanceDate: day(2024, 1, 10),
	}
	s.Require().NoError(gormrepo.NewAssistanceRepository(s.db).Create(s.ctx, rec))

	ok, _ = s.alloc.CanAcceptMoreParticipants(s.ctx, capped.CampaignID)
	s.False(ok)
}

func (s *AllocatorSuite) TestReserveInTx_AuditFailureRollsBack() {
	c := s.mustCreate("A", day(2024, 1, 1), day(2024, 3, 1), 1000)
	boom := errors.New("audit store down")

	err := gormrepo.NewGormUoW(s.db).WithinCampaignTx(s.ctx, c.CampaignID, func(r uow.Repos, locked *domain.Campaign) error {
		r.Audits = &auditmock.Repo{AppendFn: func(context.Context, *audit.Event) error { return boom }}
		return s.alloc.ReserveInTx(s.ctx, r, locked, decimal.NewFromInt(100), actor, "reserve")
	})
	s.True(domainerrors.HasCode(err, domainerrors.CodeStorage))

	got, _ := s.alloc.GetCampaign(s.ctx, c.CampaignID)
	s.True(got.BudgetConsumed.IsZero(), "budget change must roll back with the audit write")
}
