package asyncio

// ReadConfig steers the next read quantum of an operation.
//
// Zero fields select defaults: MaxBytes is the remaining size, RequestBytes
// is min(MaxBytes, DefaultRequestBytes). Frames are absolute frame ids, 0
// means unset.
type ReadConfig struct {
	RequestBytes int
	MaxBytes     int
	WantFrame    int64
	NeedFrame    int64
}

func (op *Operation) updateConfig() {
	if !op.needConfig {
		return
	}
	conf := ReadConfig{}
	if op.sink == nil || !op.sink.IOConfig(&conf) {
		conf = ReadConfig{}
	}
	op.setConfig(conf)
	op.needConfig = false
}

func (op *Operation) setConfig(conf ReadConfig) {
	log := op.sys.log()
	if conf.MaxBytes > 0 && conf.RequestBytes > conf.MaxBytes {
		log.Warn("asyncio: requested bytes exceed max bytes, clamped",
			"name", op.name, "request", conf.RequestBytes, "max", conf.MaxBytes)
		conf.RequestBytes = conf.MaxBytes
	}
	remaining := op.total - op.Tell()
	if conf.MaxBytes <= 0 || conf.MaxBytes > remaining {
		conf.MaxBytes = remaining
	}
	if conf.RequestBytes <= 0 {
		conf.RequestBytes = min(conf.MaxBytes, op.sys.defaultRequestBytes)
	}
	if conf.RequestBytes > conf.MaxBytes {
		conf.RequestBytes = conf.MaxBytes
	}
	if conf.NeedFrame != 0 && conf.WantFrame > conf.NeedFrame {
		log.Warn("asyncio: want frame after need frame, clamped",
			"name", op.name, "want", conf.WantFrame, "need", conf.NeedFrame)
		conf.WantFrame = conf.NeedFrame
	}
	op.conf = conf
}
