package syncer

import (
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

// TriggerConfig MQTT 触发器配置
type TriggerConfig struct {
	Broker   string
	ClientID string
	Username string
	Password string
	Topic    string
}

// Trigger 订阅 MQTT 主题，收到消息即触发一轮同步会话
// 默认走定时器同步，需要低延迟推送时启用
type Trigger struct {
	client mqtt.Client
	topic  string
	logger *zap.Logger
}

// NewTrigger 连接 MQTT Broker
func NewTrigger(cfg TriggerConfig, logger *zap.Logger) (*Trigger, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}

	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	return &Trigger{
		client: client,
		topic:  cfg.Topic,
		logger: logger,
	}, nil
}

// Start 订阅主题并注册回调
func (t *Trigger) Start(onTrigger func()) error {
	if token := t.client.Subscribe(t.topic, 1, func(_ mqtt.Client, msg mqtt.Message) {
		t.logger.Info("sync trigger received",
			zap.String("topic", msg.Topic()),
			zap.Int("payload_size", len(msg.Payload())))
		onTrigger()
	}); token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to subscribe to topic %s: %w", t.topic, token.Error())
	}

	t.logger.Info("MQTT sync trigger started", zap.String("topic", t.topic))
	return nil
}

// Stop 取消订阅并断开连接
func (t *Trigger) Stop() {
	if token := t.client.Unsubscribe(t.topic); token.Wait() && token.Error() != nil {
		t.logger.Error("failed to unsubscribe", zap.Error(token.Error()))
	}
	t.client.Disconnect(250)
}
