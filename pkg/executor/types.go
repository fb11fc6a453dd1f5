package executor

import (
	"github.com/bft-labs/driveseq/internal/domain"
	"github.com/bft-labs/driveseq/internal/ports"
	"github.com/bft-labs/driveseq/pkg/log"
)

// Re-exported domain types.
type (
	Description     = domain.Description
	Command         = domain.Command
	CommandKind     = domain.CommandKind
	Contour         = domain.Contour
	Pose            = domain.Pose
	PoseUpdate      = domain.PoseUpdate
	VelocityCommand = domain.VelocityCommand
	Marker          = domain.Marker
	Color           = domain.RGBA
	DeliveryPolicy  = domain.DeliveryPolicy
	RunReport       = domain.RunReport
	CommandResult   = domain.CommandResult
)

// Collaborator contracts.
type (
	PoseSource       = ports.PoseSource
	PoseHandler      = ports.PoseHandler
	VelocitySink     = ports.VelocitySink
	MarkerSink       = ports.MarkerSink
	ReportRepository = ports.ReportRepository
	Logger           = log.Logger
)

// Command kinds.
const (
	KindRotate = domain.KindRotate
	KindMove   = domain.KindMove
)

// Errors returned by the executor. Use errors.Is to check them.
var (
	ErrMalformedDescription = domain.ErrMalformedDescription
	ErrMissingField         = domain.ErrMissingField
	ErrUnknownCommand       = domain.ErrUnknownCommand
	ErrSensorTimeout        = domain.ErrSensorTimeout
	ErrInvalidArgument      = domain.ErrInvalidArgument
	ErrNotReady             = domain.ErrNotReady
	ErrEmptyContour         = domain.ErrEmptyContour
	ErrAlreadyRunning       = domain.ErrAlreadyRunning
	ErrNotRunning           = domain.ErrNotRunning
	ErrShutdownTimeout      = domain.ErrShutdownTimeout
	ErrInvalidConfig        = domain.ErrInvalidConfig
)
