package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	itemsCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lostfound_items_created_total",
			Help: "Total number of items reported",
		},
	)

	itemsDeletedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lostfound_items_deleted_total",
			Help: "Total number of items deleted together with their relationships",
		},
	)

	followsCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lostfound_follows_created_total",
			Help: "Total number of follow edges created",
		},
	)

	messagesSentTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lostfound_messages_sent_total",
			Help: "Total number of direct messages sent",
		},
	)

	messagesReadTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lostfound_messages_read_total",
			Help: "Total number of messages transitioned from unread to read",
		},
	)
)
