package mocks

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Repository --dir ../domain/game --output domain/game --outpkg gamemock --filename repository_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Registry --dir ../domain/participant --output domain/participant --outpkg participantmock --filename registry_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name CompletionScheduler --dir ../usecase --output usecase --outpkg usecasemock --filename completion_scheduler_mock.go
