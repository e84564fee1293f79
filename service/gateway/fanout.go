package gateway

type fanoutJob struct {
	conns   []*Client
	payload []byte
}

// Fanout 固定协程池消费分发任务，慢客户端直接跳过不阻塞。
type Fanout struct {
	jobs chan fanoutJob
}

func NewFanout(workers, queue int) *Fanout {
	if workers <= 0 {
		workers = 4
	}
	if queue <= 0 {
		queue = 1024
	}
	f := &Fanout{jobs: make(chan fanoutJob, queue)}
	for i := 0; i < workers; i++ {
		go func() {
			for job := range f.jobs {
				for _, c := range job.conns {
					select {
					case c.Send <- job.payload:
					default:
						// 慢客户端：跳过本帧，靠全量拉取兜底
					}
				}
			}
		}()
	}
	return f
}

func (f *Fanout) Dispatch(conns []*Client, payload []byte) {
	if len(conns) == 0 || len(payload) == 0 {
		return
	}
	f.jobs <- fanoutJob{conns: conns, payload: payload}
}
