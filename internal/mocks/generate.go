// Package mocks provides gomock implementations of the trendscout core ports.
//
// The mocks are generated with go.uber.org/mock/mockgen. To regenerate after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	runner := mocks.NewMockWorkflowRunner(ctrl)
//	runner.EXPECT().RunWorkflow(gomock.Any(), gomock.Any()).Return(run, nil)
package mocks

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=workflow_runner_mock.go github.com/target/trendscout/internal/core WorkflowRunner
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=stream_analyzer_mock.go github.com/target/trendscout/internal/core StreamAnalyzer
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=media_cleaner_mock.go github.com/target/trendscout/internal/core MediaCleaner
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=dispatcher_mock.go github.com/target/trendscout/internal/core Dispatcher
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=workflow_run_repository_mock.go github.com/target/trendscout/internal/core WorkflowRunRepository
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=email_sender_mock.go github.com/target/trendscout/internal/core EmailSender
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=user_schedule_repository_mock.go github.com/target/trendscout/internal/core UserScheduleRepository
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=tick_lease_mock.go github.com/target/trendscout/internal/core TickLease
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=media_store_mock.go github.com/target/trendscout/internal/core MediaStore
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=video_repository_mock.go github.com/target/trendscout/internal/core VideoRepository
