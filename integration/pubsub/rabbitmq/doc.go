// Package rabbitmq feeds the broadcast hub from an AMQP queue.
//
// Dial connects with retry. Source declares the configured queue, consumes
// it with automatic acknowledgement and publishes every message body to
// the hub in delivery order.
//
//	conn, err := rabbitmq.Dial(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer conn.Close()
//
//	src, err := rabbitmq.NewSource(conn, cfg.Queue, rabbitmq.WithDurable(cfg.Durable))
//	g.Go(func() error { return src.Run(ctx, hub) })
package rabbitmq
