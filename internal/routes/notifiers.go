package routes

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/ctrl-pay/ctrl_pay/internal/config"
	"github.com/ctrl-pay/ctrl_pay/internal/notification"
)

// BuildNotifier assembles the notification fanout named by cfg.Notifiers. The
// returned close function releases broker connections.
func BuildNotifier(cfg config.Config, logger *slog.Logger) (notification.Notifier, func() error, error) {
	var (
		fanout  notification.Fanout
		closers []func() error
	)
	closeAll := func() error {
		var errs []error
		for _, c := range closers {
			if err := c(); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}

	for _, name := range cfg.Notifiers {
		switch name {
		case "log":
			fanout = append(fanout, notification.NewLoggerNotifier(logger))
		case "kafka":
			k := notification.NewKafkaNotifier(cfg.KafkaBrokers, cfg.KafkaTopic)
			fanout = append(fanout, k)
			closers = append(closers, k.Close)
		case "amqp":
			a, err := notification.DialAMQP(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPRoutingKey)
			if err != nil {
				_ = closeAll()
				return nil, nil, err
			}
			fanout = append(fanout, a)
			closers = append(closers, a.Close)
		default:
			_ = closeAll()
			return nil, nil, fmt.Errorf("unknown notifier %q", name)
		}
	}
	if len(fanout) == 0 {
		fanout = append(fanout, notification.NewLoggerNotifier(logger))
	}
	return fanout, closeAll, nil
}
