package server

// HTMLPage is the browser client. It opens a "pose" data channel to the
// server, streams landmark frames and draws the stabilized skeleton.
//
// Tests drive it through window.poseClient:
//   - connect() resolves once the data channel is open
//   - send(frames) sends frames (arrays of 33 landmarks) and resolves with
//     the skeleton replies in order
//   - state() reports the peer connection state
//   - close() tears the connection down
const HTMLPage = `<!DOCTYPE html>
<html>
<head>
    <title>Pose Stabilizer</title>
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
            max-width: 800px;
            margin: 50px auto;
            padding: 20px;
            background: #f5f5f5;
        }
        .container {
            background: white;
            padding: 30px;
            border-radius: 8px;
            box-shadow: 0 2px 4px rgba(0,0,0,0.1);
        }
        h1 { color: #333; margin-bottom: 10px; }
        .subtitle { color: #666; margin-bottom: 30px; }
        button {
            background: #4285f4;
            color: white;
            border: none;
            padding: 12px 24px;
            border-radius: 4px;
            cursor: pointer;
            font-size: 16px;
            margin-right: 10px;
        }
        button:hover { background: #3367d6; }
        button:disabled { background: #ccc; cursor: not-allowed; }
        button.stop { background: #ea4335; }
        button.stop:hover { background: #d93025; }
        #status {
            margin: 20px 0;
            padding: 15px;
            border-radius: 4px;
            font-weight: 500;
        }
        .status-waiting { background: #fff3cd; color: #856404; }
        .status-connecting { background: #cce5ff; color: #004085; }
        .status-connected { background: #d4edda; color: #155724; }
        .status-error { background: #f8d7da; color: #721c24; }
        .status-closed { background: #e2e3e5; color: #383d41; }
        #skeleton {
            width: 100%;
            max-width: 480px;
            background: #111;
            border-radius: 4px;
            margin: 20px 0;
        }
    </style>
</head>
<body>
    <div class="container">
        <h1>Pose Stabilizer</h1>
        <p class="subtitle">Streams a synthetic walker and draws the stabilized skeleton</p>

        <div>
            <button id="startBtn" onclick="startDemo()">Start Demo</button>
            <button id="stopBtn" onclick="stopDemo()" class="stop" disabled>Stop</button>
        </div>

        <div id="status" class="status-waiting">Status: Waiting to start</div>

        <canvas id="skeleton" width="480" height="480"></canvas>
    </div>

    <script>
        // Joint index -> landmark index of the 33 point layout.
        const LANDMARKS = [0, 11, 12, 13, 14, 15, 16, 23, 24, 25, 26, 27, 28];

        function setStatus(message, type) {
            const status = document.getElementById('status');
            status.textContent = 'Status: ' + message;
            status.className = 'status-' + type;
        }

        function draw(skeleton) {
            const canvas = document.getElementById('skeleton');
            const ctx = canvas.getContext('2d');
            ctx.fillStyle = '#111';
            ctx.fillRect(0, 0, canvas.width, canvas.height);
            if (!skeleton.valid) {
                return;
            }
            const scale = canvas.height / 2.2;
            const px = (p) => canvas.width / 2 + p.x * scale;
            const py = (p) => canvas.height * 0.4 + p.y * scale;

            ctx.strokeStyle = '#4285f4';
            ctx.lineWidth = 4;
            for (const [a, b] of skeleton.connections) {
                const pa = skeleton.joints[a], pb = skeleton.joints[b];
                ctx.beginPath();
                ctx.moveTo(px(pa), py(pa));
                ctx.lineTo(px(pb), py(pb));
                ctx.stroke();
            }
            ctx.fillStyle = '#fbbc05';
            for (const p of skeleton.joints) {
                ctx.beginPath();
                ctx.arc(px(p), py(p), 4, 0, 2 * Math.PI);
                ctx.fill();
            }
        }

        const poseClient = {
            pc: null,
            dc: null,
            seq: 0,
            pending: new Map(),
            replies: [],

            async connect() {
                this.pc = new RTCPeerConnection({ iceServers: [] });
                this.dc = this.pc.createDataChannel('pose');
                this.dc.onmessage = (event) => {
                    const msg = JSON.parse(event.data);
                    this.replies.push(msg);
                    draw(msg);
                    const resolve = this.pending.get(msg.seq);
                    if (resolve) {
                        this.pending.delete(msg.seq);
                        resolve(msg);
                    }
                };
                const opened = new Promise((resolve, reject) => {
                    this.dc.onopen = resolve;
                    this.pc.onconnectionstatechange = () => {
                        if (this.pc && this.pc.connectionState === 'failed') {
                            reject(new Error('connection failed'));
                        }
                    };
                });

                await this.pc.setLocalDescription(await this.pc.createOffer());
                await new Promise((resolve) => {
                    if (this.pc.iceGatheringState === 'complete') {
                        resolve();
                        return;
                    }
                    this.pc.onicegatheringstatechange = () => {
                        if (this.pc.iceGatheringState === 'complete') {
                            resolve();
                        }
                    };
                });

                const response = await fetch('/offer', {
                    method: 'POST',
                    headers: { 'Content-Type': 'application/json' },
                    body: JSON.stringify(this.pc.localDescription)
                });
                if (!response.ok) {
                    throw new Error('Server returned ' + response.status);
                }
                await this.pc.setRemoteDescription(await response.json());
                await opened;
                return true;
            },

            sendOne(landmarks) {
                const seq = ++this.seq;
                const reply = new Promise((resolve) => this.pending.set(seq, resolve));
                this.dc.send(JSON.stringify({ seq: seq, landmarks: landmarks }));
                return reply;
            },

            async send(frames) {
                return Promise.all(frames.map((landmarks) => this.sendOne(landmarks)));
            },

            state() {
                return this.pc ? this.pc.connectionState : 'closed';
            },

            close() {
                if (this.pc) {
                    this.pc.close();
                }
                this.pc = null;
                this.dc = null;
                this.pending.clear();
            }
        };
        window.poseClient = poseClient;

        // walkerFrame builds a 33 point landmark set for a walking figure
        // with noisy depth at gait phase t.
        function walkerFrame(t) {
            const dir = (a) => ({ y: Math.cos(a), z: Math.sin(a) });
            const swing = 0.45 * Math.sin(t);
            const arm = 0.35 * Math.sin(t);
            const joints = [];
            const at = (p, len, d) => ({ x: p.x, y: p.y + len * d.y, z: p.z + len * d.z });
            joints[0] = { x: 0, y: -0.7, z: 0.05 };
            joints[7] = { x: 0.11, y: 0, z: 0 };
            joints[8] = { x: -0.11, y: 0, z: 0 };
            joints[1] = at(joints[7], 0.53, dir(Math.PI));
            joints[2] = at(joints[8], 0.53, dir(Math.PI));
            joints[3] = at(joints[1], 0.21, dir(-arm));
            joints[4] = at(joints[2], 0.21, dir(arm));
            joints[5] = at(joints[3], 0.19, dir(-arm + 0.3));
            joints[6] = at(joints[4], 0.19, dir(arm + 0.3));
            joints[9] = at(joints[7], 0.40, dir(swing));
            joints[10] = at(joints[8], 0.40, dir(-swing));
            joints[11] = at(joints[9], 0.32, dir(swing - 0.3));
            joints[12] = at(joints[10], 0.32, dir(-swing - 0.3));

            const landmarks = [];
            for (let i = 0; i < 33; i++) {
                landmarks.push({ x: 0, y: 0, z: 0, visibility: 1 });
            }
            joints.forEach((p, j) => {
                landmarks[LANDMARKS[j]] = {
                    x: p.x, y: p.y, z: p.z + (Math.random() - 0.5) * 0.1, visibility: 1
                };
            });
            return landmarks;
        }

        let demoTimer = null;

        async function startDemo() {
            document.getElementById('startBtn').disabled = true;
            document.getElementById('stopBtn').disabled = false;
            try {
                setStatus('Connecting...', 'connecting');
                await poseClient.connect();
                setStatus('Streaming', 'connected');
                let t = 0;
                demoTimer = setInterval(() => {
                    t += 2 * Math.PI / 30;
                    poseClient.sendOne(walkerFrame(t));
                }, 33);
            } catch (err) {
                setStatus('Error: ' + err.message, 'error');
                stopDemo();
            }
        }

        function stopDemo() {
            if (demoTimer) {
                clearInterval(demoTimer);
                demoTimer = null;
            }
            poseClient.close();
            document.getElementById('startBtn').disabled = false;
            document.getElementById('stopBtn').disabled = true;
            setStatus('Stopped', 'closed');
        }
    </script>
</body>
</html>`
