package contract

import (
	"fmt"

	"github.com/getmockd/contractd/pkg/pattern"
	"github.com/getmockd/contractd/pkg/result"
	"github.com/getmockd/contractd/pkg/value"
)

// KafkaMessage is a message observed on, or generated for, a topic.
type KafkaMessage struct {
	Topic string
	Key   value.Value
	Value value.Value
}

// KafkaMessagePattern describes the message a scenario publishes. A nil Key
// accepts any key.
type KafkaMessagePattern struct {
	Topic string
	Key   pattern.Pattern
	Value pattern.Pattern
}

// Matches checks msg against the topic, key and value.
func (p *KafkaMessagePattern) Matches(msg KafkaMessage, r pattern.Resolver) result.Result {
	if p.Topic != msg.Topic {
		return result.NewFailure(fmt.Sprintf("Expected topic %s, actual was %s", p.Topic, msg.Topic)).WithBreadCrumb("TOPIC")
	}
	var results []result.Result
	if p.Key != nil && msg.Key != nil {
		results = append(results, r.MatchesPattern("", p.Key, msg.Key).BreadCrumb("KEY"))
	}
	if p.Value != nil {
		v := msg.Value
		if v == nil {
			v = value.StringValue("")
		}
		if s, ok := v.(value.StringValue); ok && s != "" {
			v = parseOrString(p.Value, string(s), r)
		}
		results = append(results, r.MatchesPattern("", p.Value, v).BreadCrumb("VALUE"))
	}
	return result.FromResults(results)
}

// Generate produces a message.
func (p *KafkaMessagePattern) Generate(r pattern.Resolver) (KafkaMessage, error) {
	msg := KafkaMessage{Topic: p.Topic}
	var err error
	if p.Key != nil {
		if msg.Key, err = p.Key.Generate(r); err != nil {
			return KafkaMessage{}, result.BreadCrumbError(err, "KEY")
		}
	}
	if p.Value != nil {
		if msg.Value, err = p.Value.Generate(r); err != nil {
			return KafkaMessage{}, result.BreadCrumbError(err, "VALUE")
		}
	}
	return msg, nil
}

// NewBasedOn expands the value pattern for row. The key does not vary.
func (p *KafkaMessagePattern) NewBasedOn(row pattern.Row, r pattern.Resolver) ([]pattern.ReturnValue[*KafkaMessagePattern], error) {
	if p.Value == nil {
		return []pattern.ReturnValue[*KafkaMessagePattern]{pattern.HasValue(p)}, nil
	}
	values, err := p.Value.NewBasedOn(row, r)
	if err != nil {
		return nil, result.BreadCrumbError(err, "VALUE")
	}
	out := make([]pattern.ReturnValue[*KafkaMessagePattern], 0, len(values))
	for _, v := range values {
		out = append(out, pattern.MapReturnValue(v.BreadCrumb("VALUE"), func(vp pattern.Pattern) *KafkaMessagePattern {
			return &KafkaMessagePattern{Topic: p.Topic, Key: p.Key, Value: vp}
		}))
	}
	return out, nil
}
