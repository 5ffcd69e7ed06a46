package hierarchy

const loginScreenXML = `<?xml version='1.0' encoding='UTF-8' standalone='yes' ?>
<hierarchy rotation="0">
  <node index="0" text="" resource-id="" class="android.widget.FrameLayout" package="com.android.systemui" content-desc="" clickable="false" bounds="[0,0][1080,63]">
    <node index="0" text="12:00" resource-id="com.android.systemui:id/clock" class="android.widget.TextView" package="com.android.systemui" content-desc="" clickable="true" bounds="[20,0][120,63]" />
  </node>
  <node index="0" text="" resource-id="" class="android.widget.FrameLayout" package="com.app" content-desc="" clickable="false" scrollable="false" bounds="[0,0][1080,1920]">
    <node index="0" text="Login" resource-id="com.app:id/login_button" class="android.widget.Button" package="com.app" content-desc="" clickable="true" bounds="[100,200][500,300]" />
    <node index="1" text="" resource-id="com.app:id/username" class="android.widget.EditText" package="com.app" content-desc="" clickable="true" long-clickable="true" bounds="[100,400][980,500]" />
    <node index="2" text="" resource-id="com.app:id/list" class="androidx.recyclerview.widget.RecyclerView" package="com.app" content-desc="" scrollable="true" bounds="[0,600][1080,1800]">
      <node index="0" text="Item one" resource-id="com.app:id/item" class="android.widget.TextView" package="com.app" content-desc="" clickable="true" long-clickable="true" bounds="[0,600][1080,700]" />
      <node index="1" text="Hidden" resource-id="com.app:id/item" class="android.widget.TextView" package="com.app" content-desc="" clickable="true" visible-to-user="false" bounds="[0,700][1080,800]" />
    </node>
  </node>
</hierarchy>`
