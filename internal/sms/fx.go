package sms

import (
	"go.uber.org/fx"

	"github.com/autoremind/autoremind/internal/sms/domain"
	"github.com/autoremind/autoremind/internal/sms/service"
	"github.com/autoremind/autoremind/internal/sms/twilio"
)

var Module = fx.Module("sms.service",
	fx.Provide(provideCarrier),
	fx.Provide(provideClassifier),
	fx.Provide(service.New),
)

func provideCarrier() domain.Carrier {
	return twilio.New()
}

func provideClassifier() domain.Classifier {
	return twilio.Classify
}
